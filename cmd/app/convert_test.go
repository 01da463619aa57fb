package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/glossaryqf/internal/models"
)

func TestOutputFormat(t *testing.T) {
	assert.Equal(t, formatJSON, outputFormat("", "out.JSON"))
	assert.Equal(t, formatYAML, outputFormat("", "out.yml"))
	assert.Equal(t, formatYAML, outputFormat("", ""))
	assert.Equal(t, formatJSON, outputFormat(formatJSON, "out.yaml"))
}

func TestDecodeQuestions_YAMLAppliesDefaults(t *testing.T) {
	data := []byte(`
- body: Capital of France
  body_format: 2
  answers:
    - text: Paris
      fraction: 1
- kind: essay
  body: Discuss
`)
	qs, err := decodeQuestions(data, formatYAML)
	require.NoError(t, err)
	require.Len(t, qs, 2)

	assert.Equal(t, models.KindShortAnswer, qs[0].Kind)
	assert.Equal(t, models.FormatPlain, qs[0].BodyFormat)
	assert.Equal(t, 1.0, qs[0].DefaultMark)
	assert.Equal(t, "Paris", qs[0].Answers[0].Text)
	assert.Equal(t, models.KindEssay, qs[1].Kind)
}

func TestDecodeQuestions_JSON(t *testing.T) {
	qs, err := decodeQuestions([]byte(`[{"body":"b","answers":[{"text":"a","fraction":1}]}]`), formatJSON)
	require.NoError(t, err)
	require.Len(t, qs, 1)
	assert.Equal(t, models.KindShortAnswer, qs[0].Kind)
	assert.Equal(t, 0.3333333, qs[0].Penalty)
}

func TestEncodeDecodeQuestions(t *testing.T) {
	q := models.DefaultQuestion()
	q.Body = "Capital of Italy"
	q.Answers = []models.Answer{{Text: "Rome", Fraction: 1}}

	for _, format := range []string{formatYAML, formatJSON} {
		out, err := encodeQuestions([]models.Question{q}, format)
		require.NoError(t, err, format)

		back, err := decodeQuestions(out, format)
		require.NoError(t, err, format)
		require.Len(t, back, 1, format)
		assert.Equal(t, q.Body, back[0].Body, format)
		assert.Equal(t, q.Answers, back[0].Answers, format)
	}
}

func TestDecodeQuestions_Invalid(t *testing.T) {
	_, err := decodeQuestions([]byte("{not a list"), formatJSON)
	assert.Error(t, err)
	_, err = decodeQuestions([]byte("key: value"), formatYAML)
	assert.Error(t, err)
}
