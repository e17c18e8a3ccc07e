package cli

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"
	"veggie-trivia-service/internal/config"
	"veggie-trivia-service/internal/infra/postgres"
	"veggie-trivia-service/internal/questionbank"
)

// NewImportCmd loads a question bank file into the Postgres questions table.
func NewImportCmd(configPath *string) *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:   "import-questions",
		Short: "Import a question bank file into Postgres",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if path == "" {
				path = cfg.Questions.Path
			}
			records, err := questionbank.ReadRecordsFile(path)
			if err != nil {
				return err
			}
			if err := RunMigrations(cmd.Context(), cfg.Postgres.URL); err != nil {
				return err
			}
			b, err := openBackends(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer b.Close()
			n, err := postgres.ImportQuestions(cmd.Context(), b.pg, records)
			if err != nil {
				return fmt.Errorf("import %s: %w", path, err)
			}
			log.Printf("imported %d questions from %s", n, path)
			return nil
		},
	}
	cmd.Flags().StringVar(&path, "file", "", "question bank file (defaults to questions.path)")
	return cmd
}
