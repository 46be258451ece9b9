package usecase_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"cloudsec-orchestrator/internal/domain"
	"cloudsec-orchestrator/internal/usecase"
)

func passage(seed string) string {
	return strings.TrimSpace(strings.Repeat(seed+" security controls for cloud workloads. ", 6))
}

func chunkOf(content string) domain.RetrievedChunk {
	return domain.RetrievedChunk{Content: content}
}

func TestBuild_JoinsSurvivingPassages(t *testing.T) {
	b := usecase.NewContextBuilder()

	first := passage("Grant least privilege with IAM.")
	second := passage("Rotate access keys regularly.")

	result := b.Build([]domain.RetrievedChunk{chunkOf(first), chunkOf(second)})

	assert.Equal(t, first+"\n\n---\n\n"+second, result)
}

func TestBuild_FiltersShortAndEmpty(t *testing.T) {
	b := usecase.NewContextBuilder()

	result := b.Build([]domain.RetrievedChunk{
		chunkOf(""),
		chunkOf("   "),
		chunkOf("Too short to be documentation."),
		chunkOf(passage("Keep this one.")),
	})

	assert.Equal(t, passage("Keep this one."), result)
}

func TestBuild_FiltersCrawlArtifacts(t *testing.T) {
	b := usecase.NewContextBuilder()

	result := b.Build([]domain.RetrievedChunk{
		chunkOf(passage("Broken &quot;entity&quot; dump.")),
		chunkOf(passage("Fields with null, markers everywhere.")),
	})

	assert.Empty(t, result)
}

func TestBuild_FiltersBoilerplateWithoutSecuritySignal(t *testing.T) {
	b := usecase.NewContextBuilder()

	promo := strings.TrimSpace(strings.Repeat("Learn more about our pricing plans and enterprise offerings today. ", 6))
	keeper := passage("Learn more about encryption.")

	result := b.Build([]domain.RetrievedChunk{chunkOf(promo), chunkOf(keeper)})

	assert.Equal(t, keeper, result)
}

func TestBuild_DeduplicatesIdenticalPassages(t *testing.T) {
	b := usecase.NewContextBuilder()

	p := passage("Enable audit logging.")
	result := b.Build([]domain.RetrievedChunk{chunkOf(p), chunkOf(p), chunkOf(p)})

	assert.Equal(t, p, result)
}

func TestBuild_EmptyInput(t *testing.T) {
	b := usecase.NewContextBuilder()

	assert.Empty(t, b.Build(nil))
}
