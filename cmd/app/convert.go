package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"

	"github.com/starford/glossaryqf/internal"
	"github.com/starford/glossaryqf/internal/models"
)

const (
	formatYAML = "yaml"
	formatJSON = "json"
)

func convertFlags(formatUsage string) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Write to file instead of stdout",
		},
		&cli.StringFlag{
			Name:    "format",
			Aliases: []string{"f"},
			Usage:   formatUsage,
		},
	}
}

// converterLogger keeps stdout free for command output.
func converterLogger(cfg *internal.Config) *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.App.LogLevel}))
}

func importCommand(_ context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() != 1 {
		return fmt.Errorf("import: expected one glossary file")
	}
	if err := checkFormat(cmd); err != nil {
		return err
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	f, err := os.Open(cmd.Args().First())
	if err != nil {
		return fmt.Errorf("import: %w", err)
	}
	defer f.Close()

	_, im := internal.NewConverter(cfg, converterLogger(cfg))
	questions, err := im.ReadFrom(f)
	if err != nil {
		return fmt.Errorf("import: %w", err)
	}
	if questions == nil {
		questions = []models.Question{}
	}

	out, err := encodeQuestions(questions, outputFormat(cmd.String("format"), cmd.String("output")))
	if err != nil {
		return fmt.Errorf("import: %w", err)
	}
	return writeOutput(cmd, out)
}

func exportCommand(_ context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() != 1 {
		return fmt.Errorf("export: expected one question file")
	}
	if err := checkFormat(cmd); err != nil {
		return err
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	path := cmd.Args().First()
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}

	questions, err := decodeQuestions(data, outputFormat(cmd.String("format"), path))
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}
	for i, q := range questions {
		if err := q.Validate(); err != nil {
			return fmt.Errorf("export: question %d: %w", i+1, err)
		}
	}

	exp, _ := internal.NewConverter(cfg, converterLogger(cfg))
	return writeOutput(cmd, []byte(exp.WriteDocument(questions)))
}

func checkFormat(cmd *cli.Command) error {
	if err := validation.Validate(cmd.String("format"), validation.In(formatYAML, formatJSON)); err != nil {
		return fmt.Errorf("format: %w", err)
	}
	return nil
}

// outputFormat picks the explicit format, else the one implied by path,
// else YAML.
func outputFormat(explicit, path string) string {
	if explicit != "" {
		return explicit
	}
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return formatJSON
	}
	return formatYAML
}

func encodeQuestions(questions []models.Question, format string) ([]byte, error) {
	if format == formatJSON {
		out, err := json.MarshalIndent(questions, "", "  ")
		if err != nil {
			return nil, err
		}
		return append(out, '\n'), nil
	}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(questions); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// decodeQuestions reads a question list. Missing fields take the bank
// defaults.
func decodeQuestions(data []byte, format string) ([]models.Question, error) {
	var raw []json.RawMessage
	if format == formatJSON {
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, err
		}
		questions := make([]models.Question, len(raw))
		for i, r := range raw {
			questions[i] = models.DefaultQuestion()
			if err := json.Unmarshal(r, &questions[i]); err != nil {
				return nil, fmt.Errorf("question %d: %w", i+1, err)
			}
		}
		return questions, nil
	}

	var nodes []yaml.Node
	if err := yaml.Unmarshal(data, &nodes); err != nil {
		return nil, err
	}
	questions := make([]models.Question, len(nodes))
	for i := range nodes {
		questions[i] = models.DefaultQuestion()
		if err := nodes[i].Decode(&questions[i]); err != nil {
			return nil, fmt.Errorf("question %d: %w", i+1, err)
		}
	}
	return questions, nil
}

func writeOutput(cmd *cli.Command, data []byte) error {
	var w io.Writer = os.Stdout
	if path := cmd.String("output"); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	_, err := w.Write(data)
	return err
}
