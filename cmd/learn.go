package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wordwisp/wordwisp/internal/config"
	"github.com/wordwisp/wordwisp/internal/logger"
	"github.com/wordwisp/wordwisp/internal/store"
	"github.com/wordwisp/wordwisp/internal/worker"
)

func newLearnCmd(configPath *string) *cobra.Command {
	var workers int
	var skipEmbeddings bool

	cmd := &cobra.Command{
		Use:   "learn <file>",
		Short: "Feed a text corpus to every predictor with learning enabled",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := buildEngine(*configPath)
			if err != nil {
				return err
			}
			defer eng.close()

			phrases, embed := phraseWarmup(eng, skipEmbeddings)
			ingestor := worker.New(eng.activator, phrases, embed, logger.New("ingest"), workers)

			learned, err := ingestor.Run(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "learned %d lines\n", learned)
			return nil
		},
	}
	cmd.Flags().IntVar(&workers, "workers", 4, "parallel embedding workers")
	cmd.Flags().BoolVar(&skipEmbeddings, "skip-embeddings", false, "skip the embedding warmup pass")
	return cmd
}

// phraseWarmup wires the embedding warmup when a phrase-backed predictor is
// configured. Without one there is nothing to embed.
func phraseWarmup(eng *engine, skip bool) (*store.PhraseStore, store.EmbedFunc) {
	if skip {
		return nil, nil
	}
	dbPath := ""
	for _, section := range eng.cfg.Predictors {
		if section.Class == config.ClassCannedPhrases || section.Class == config.ClassSentenceCompletion {
			dbPath = eng.cfg.DatabaseFor(section)
			break
		}
	}
	if dbPath == "" {
		return nil, nil
	}

	db, err := store.Open(dbPath)
	if err != nil {
		logger.New("ingest").Warn("cannot open database for embedding warmup", "err", err)
		return nil, nil
	}
	phrases, err := store.NewPhraseStore(db)
	if err != nil {
		logger.New("ingest").Warn("cannot open phrase store for embedding warmup", "err", err)
		return nil, nil
	}
	embed := func(text string) ([]float32, error) {
		resp, err := eng.client.Embed(text)
		if err != nil {
			return nil, err
		}
		return resp.Embedding, nil
	}
	return phrases, embed
}
