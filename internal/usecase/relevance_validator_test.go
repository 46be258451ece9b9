package usecase_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"cloudsec-orchestrator/internal/usecase"
)

type mockClassifier struct {
	mock.Mock
}

func (m *mockClassifier) Classify(ctx context.Context, query string) (bool, error) {
	args := m.Called(ctx, query)
	return args.Bool(0), args.Error(1)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestIsRelevant_RejectsTooShort(t *testing.T) {
	v := usecase.NewRelevanceValidator(new(mockClassifier), discardLogger())

	assert.False(t, v.IsRelevant(context.Background(), ""))
	assert.False(t, v.IsRelevant(context.Background(), "ab"))
	assert.False(t, v.IsRelevant(context.Background(), "  a  "))
}

func TestIsRelevant_AcceptsGreetings(t *testing.T) {
	v := usecase.NewRelevanceValidator(new(mockClassifier), discardLogger())

	assert.True(t, v.IsRelevant(context.Background(), "hey"))
	assert.True(t, v.IsRelevant(context.Background(), "Hello"))
	assert.True(t, v.IsRelevant(context.Background(), "thank you"))
}

func TestIsRelevant_MultiWordDelegatesToClassifier(t *testing.T) {
	classifier := new(mockClassifier)
	classifier.On("Classify", mock.Anything, "how do I bake bread").Return(false, nil)
	classifier.On("Classify", mock.Anything, "how do I restrict S3 access").Return(true, nil)

	v := usecase.NewRelevanceValidator(classifier, discardLogger())

	assert.False(t, v.IsRelevant(context.Background(), "how do I bake bread"))
	assert.True(t, v.IsRelevant(context.Background(), "how do I restrict S3 access"))
	classifier.AssertExpectations(t)
}

func TestIsRelevant_ClassifierFailureFailsOpen(t *testing.T) {
	classifier := new(mockClassifier)
	classifier.On("Classify", mock.Anything, mock.Anything).Return(false, errors.New("backend down"))

	v := usecase.NewRelevanceValidator(classifier, discardLogger())

	assert.True(t, v.IsRelevant(context.Background(), "some ambiguous question"))
}

func TestIsRelevant_SingleTokenHeuristics(t *testing.T) {
	v := usecase.NewRelevanceValidator(new(mockClassifier), discardLogger())

	// Domain keywords pass without a classifier call.
	assert.True(t, v.IsRelevant(context.Background(), "iam"))
	assert.True(t, v.IsRelevant(context.Background(), "firewall"))

	// Long keyboard mash, stretched greetings, and digit-only input fail.
	assert.False(t, v.IsRelevant(context.Background(), "owuhuowhfusd"))
	assert.False(t, v.IsRelevant(context.Background(), "hiiiii"))
	assert.False(t, v.IsRelevant(context.Background(), "12345"))

	// Unknown single word defaults to reject.
	assert.False(t, v.IsRelevant(context.Background(), "banana"))
}
