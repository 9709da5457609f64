package transformer

import (
	"github.com/veriskill/integrity-engine/database/models"
	"github.com/veriskill/integrity-engine/dtos"
)

func PlagiarismAnalysisModelToDTO(analysis models.PlagiarismAnalysis) dtos.PlagiarismAnalysisDTO {
	var severity *dtos.PlagiarismSeverity
	if analysis.Severity != nil {
		s := dtos.PlagiarismSeverity(*analysis.Severity)
		severity = &s
	}
	return dtos.PlagiarismAnalysisDTO{
		ID:                   analysis.ID,
		SubmissionID:         analysis.SubmissionID,
		ProblemID:            analysis.ProblemID,
		StudentID:            analysis.StudentID,
		LexicalSimilarity:    analysis.LexicalSimilarity,
		StructuralSimilarity: analysis.StructuralSimilarity,
		TemporalSuspicion:    analysis.TemporalSuspicion,
		OverallScore:         analysis.OverallScore,
		Flagged:              analysis.Flagged,
		Severity:             severity,
		MatchedSubmissions:   analysis.GetMatchedSubmissions(),
		State:                analysis.State,
		ReviewStatus:         analysis.ReviewStatus,
		ReviewedBy:           analysis.ReviewedBy,
		Notes:                analysis.Notes,
		ComputedAt:           analysis.ComputedAt,
	}
}

func PlagiarismAnalysisModelsToDTOs(analyses []models.PlagiarismAnalysis) []dtos.PlagiarismAnalysisDTO {
	analysisDTOs := make([]dtos.PlagiarismAnalysisDTO, len(analyses))
	for i, analysis := range analyses {
		analysisDTOs[i] = PlagiarismAnalysisModelToDTO(analysis)
	}
	return analysisDTOs
}
