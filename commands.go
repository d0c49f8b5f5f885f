package main

import (
	"github.com/example/wordcards/internal/excel"
	"github.com/spf13/cobra"
)

var (
	envFile      string
	importConfig = excel.DefaultImportConfig()

	rootCmd = &cobra.Command{
		Use:   "wordcards",
		Short: "Telegram bot for drilling Russian-English vocabulary",
		Long: `wordcards quizzes Telegram users on word pairs with a
multiple-choice keyboard and lets them grow their own vocabulary.`,
		SilenceUsage:      true,
		PersistentPreRunE: loadConfig,
		RunE:              runServe,
	}

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Run the bot until interrupted",
		RunE:  runServe,
	}

	seedCmd = &cobra.Command{
		Use:   "seed",
		Short: "Create the schema and add the built-in words",
		RunE:  runSeed,
	}

	importCmd = &cobra.Command{
		Use:   "import",
		Short: "Add global words from an Excel or CSV file",
		RunE:  runImport,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before reading the environment")

	importCmd.Flags().StringVar(&importConfig.FilePath, "file", "", "xlsx or csv file with the words")
	importCmd.Flags().StringVar(&importConfig.SheetName, "sheet", importConfig.SheetName, "sheet to read (Excel only)")
	importCmd.Flags().IntVar(&importConfig.StartRow, "start-row", importConfig.StartRow, "first data row, 1-based")
	importCmd.Flags().StringVar(&importConfig.SourceColumn, "source-column", importConfig.SourceColumn, "column with the Russian term")
	importCmd.Flags().StringVar(&importConfig.TargetColumn, "target-column", importConfig.TargetColumn, "column with the English term")
	importCmd.Flags().StringVar(&importConfig.ExampleColumn, "example-column", importConfig.ExampleColumn, "column with the usage example, empty to skip")
	_ = importCmd.MarkFlagRequired("file")

	rootCmd.AddCommand(serveCmd, seedCmd, importCmd)
}
