package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wordwisp/wordwisp/internal/predictor/combiner"
	"github.com/wordwisp/wordwisp/internal/predictor/entity"
)

func newPredictCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "predict [text]",
		Short: "Predict next words and sentence completions for the given text",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := buildEngine(*configPath)
			if err != nil {
				return err
			}
			defer eng.close()

			eng.tracker.SetContext(strings.Join(args, " "))
			resp := eng.activator.Predict()

			out := cmd.OutOrStdout()
			printLetters(out, "next letters", resp.NextLetterProbabilities)
			printSuggestions(out, "words", resp.WordPredictions)
			printLetters(out, "sentence letters", resp.SentenceNextLetterProbabilities)
			printSuggestions(out, "sentences", resp.SentencePredictions)
			return nil
		},
	}
}

func printLetters(out io.Writer, header string, letters []combiner.LetterProb) {
	if len(letters) == 0 {
		return
	}
	fmt.Fprintf(out, "%s:\n", header)
	for _, lp := range letters {
		fmt.Fprintf(out, "  %c  %.4f\n", lp.Letter, lp.Probability)
	}
}

func printSuggestions(out io.Writer, header string, p entity.Prediction) {
	if p.Len() == 0 {
		return
	}
	fmt.Fprintf(out, "%s:\n", header)
	for _, s := range p.Suggestions() {
		fmt.Fprintf(out, "  %-30s %.4f  (%s)\n", s.Word, s.Probability(), s.Predictor)
	}
}
