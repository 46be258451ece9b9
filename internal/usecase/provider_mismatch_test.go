package usecase_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"cloudsec-orchestrator/internal/domain"
	"cloudsec-orchestrator/internal/usecase"
)

func TestDetect_FlagsForeignProviderKeywords(t *testing.T) {
	d := usecase.NewProviderMismatchDetector()

	result := d.Detect("How do I make an S3 bucket private?", domain.ProviderGCP)

	assert.True(t, result.Mismatch)
	assert.Equal(t, []string{"AWS"}, result.Detected)
}

func TestDetect_SelectedProviderKeywordsAreFine(t *testing.T) {
	d := usecase.NewProviderMismatchDetector()

	result := d.Detect("How do I make an S3 bucket private?", domain.ProviderAWS)

	assert.False(t, result.Mismatch)
	assert.Empty(t, result.Detected)
}

func TestDetect_SkipsWithoutConcreteSelection(t *testing.T) {
	d := usecase.NewProviderMismatchDetector()

	assert.False(t, d.Detect("S3 and BigQuery and Key Vault", domain.ProviderGeneral).Mismatch)
	assert.False(t, d.Detect("S3 and BigQuery and Key Vault", domain.Provider("")).Mismatch)
}

func TestDetect_ReportsAllForeignProvidersSorted(t *testing.T) {
	d := usecase.NewProviderMismatchDetector()

	result := d.Detect("Compare S3 encryption with Azure Key Vault", domain.ProviderGCP)

	assert.True(t, result.Mismatch)
	assert.Equal(t, []string{"AWS", "AZURE"}, result.Detected)
}

func TestDetect_WordBoundaries(t *testing.T) {
	d := usecase.NewProviderMismatchDetector()

	// "gcse" must not match "gcs", "lawsuit" must not match "aws".
	result := d.Detect("my gcse lawsuit paperwork", domain.ProviderAzure)

	assert.False(t, result.Mismatch)
}
