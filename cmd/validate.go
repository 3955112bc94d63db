package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/spigell/skillmatrix/internal/logger"
	"github.com/spigell/skillmatrix/internal/matrix"
	"go.uber.org/zap"
)

var validateCmd = &cobra.Command{
	Use:   "validate [file|-]",
	Short: "Check a skill matrix JSON document against the schema",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
		if err != nil {
			log.Fatalf("creating a logger: %s", err)
		}

		raw, err := readRaw(cmd.InOrStdin(), args)
		if err != nil {
			logger.Fatal("reading document", zap.Error(err))
		}

		valid, err := validateDocument(cmd.OutOrStdout(), raw)
		if err != nil {
			logger.Fatal("validating document", zap.Error(err))
		}
		if !valid {
			logger.Error("document does not match the schema")
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

type validationReport struct {
	Valid      bool               `json:"valid"`
	Violations []matrix.Violation `json:"violations,omitempty"`
}

// validateDocument writes a report for raw and tells whether it is valid.
func validateDocument(out io.Writer, raw []byte) (bool, error) {
	report := validationReport{Valid: true}

	if _, err := matrix.ValidateJSON(raw); err != nil {
		var verr *matrix.ValidationError
		if !errors.As(err, &verr) {
			return false, err
		}
		report = validationReport{Violations: verr.Violations}
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return false, fmt.Errorf("writing report: %w", err)
	}
	return report.Valid, nil
}

func readRaw(stdin io.Reader, args []string) ([]byte, error) {
	if len(args) == 0 || args[0] == "-" {
		return io.ReadAll(stdin)
	}
	return os.ReadFile(args[0])
}
