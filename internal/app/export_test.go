package app

// NewQuestionPoolWithMin skips the production floor so tests can drive a
// game into an exhausted pool.
var NewQuestionPoolWithMin = newQuestionPool
