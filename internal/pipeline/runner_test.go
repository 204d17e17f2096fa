package pipeline_test

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"finsync/internal/domain"
	"finsync/internal/metrics"
	"finsync/internal/pipeline"
	"finsync/internal/port"
	"finsync/mocks"
)

func invoiceReply(shop string) string {
	return fmt.Sprintf(`[{"Shop Name":%q,"Items":[{"HSN Code":"6201"}]}]`, shop)
}

func TestRunner_MergesInInputOrder(t *testing.T) {
	files := map[string][]byte{}
	var docs []domain.SourceDocument
	ext := new(mocks.MockTextExtractor)
	for i := 0; i < 5; i++ {
		name := fmt.Sprintf("doc-%d.pdf", i)
		path := "/in/" + name
		files[path] = []byte(name)
		docs = append(docs, domain.SourceDocument{Name: name, Path: path})

		text := "text of " + name
		ext.On("Extract", mock.Anything, mock.MatchedBy(func(in port.ExtractInput) bool {
			return isOCR(in) && string(in.Document) == name
		})).Return(text, nil)
		ext.On("Extract", mock.Anything, mock.MatchedBy(func(in port.ExtractInput) bool {
			return isParse(in) && strings.HasSuffix(in.Prompt, "\n"+text)
		})).Return(invoiceReply(name), nil)
	}
	ext.On("Extract", mock.Anything, mock.MatchedBy(isValidate)).Return("Valid", nil)

	o := pipeline.NewOrchestrator(ext, pipeline.WithLoader(memLoader(files)))
	r := pipeline.NewRunner(o, 3, metrics.New())

	result := r.RunBatch(context.Background(), docs, "out.xlsx")

	require.Len(t, result.Records, 5)
	require.Len(t, result.Outcomes, 5)
	for i := range docs {
		assert.Equal(t, docs[i].Name, result.Records[i].ShopName.Value)
		assert.Equal(t, docs[i].Name, result.Outcomes[i].Name)
		assert.Equal(t, 1, result.Outcomes[i].Invoices)
		assert.True(t, result.Outcomes[i].Validated)
	}
}

func TestRunner_FailedDocumentDoesNotAbortBatch(t *testing.T) {
	files := map[string][]byte{"/in/a.pdf": []byte("a"), "/in/b.pdf": []byte("b")}
	ext := new(mocks.MockTextExtractor)
	ext.On("Extract", mock.Anything, mock.MatchedBy(func(in port.ExtractInput) bool {
		return isOCR(in) && string(in.Document) == "a"
	})).Return("", fmt.Errorf("collaborator down"))
	ext.On("Extract", mock.Anything, mock.MatchedBy(func(in port.ExtractInput) bool {
		return isOCR(in) && string(in.Document) == "b"
	})).Return("text b", nil)
	ext.On("Extract", mock.Anything, mock.MatchedBy(isParse)).Return(invoiceReply("B"), nil)
	ext.On("Extract", mock.Anything, mock.MatchedBy(isValidate)).Return("Valid", nil)

	r := pipeline.NewRunner(pipeline.NewOrchestrator(ext, pipeline.WithLoader(memLoader(files))), 0, nil)
	result := r.RunBatch(context.Background(), []domain.SourceDocument{
		{Name: "a.pdf", Path: "/in/a.pdf"},
		{Name: "b.pdf", Path: "/in/b.pdf"},
	}, "")

	require.Len(t, result.Records, 1)
	assert.Equal(t, "B", result.Records[0].ShopName.Value)
	assert.Equal(t, 0, result.Outcomes[0].Invoices)
	assert.Equal(t, 0, result.Outcomes[0].RawTextChars)
	assert.NotEmpty(t, result.Outcomes[0].Issues)
	assert.Equal(t, 6, result.Outcomes[1].RawTextChars)
}

func TestRunner_EmptyBatch(t *testing.T) {
	r := pipeline.NewRunner(pipeline.NewOrchestrator(new(mocks.MockTextExtractor)), 1, nil)
	result := r.RunBatch(context.Background(), nil, "")
	assert.Empty(t, result.Records)
	assert.Empty(t, result.Outcomes)
}
