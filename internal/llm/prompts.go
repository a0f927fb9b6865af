package llm

import "fmt"

const maxPromptContent = 16000

// AnalyzePrompt generates the prompt for scoring an item's archival value.
func AnalyzePrompt(req AnalyzeRequest) string {
	return fmt.Sprintf(`You are an archival valuation system. Score this archived item on three dimensions, each 0-100.

TITLE: %s
TYPE: %s
TAGS: %s

CONTENT:
%s

Dimensions:
- relevance: how likely the owner is to need this again (100 = actively referenced knowledge, 0 = noise)
- uniqueness: how hard this would be to find elsewhere (100 = exists nowhere else, 0 = trivially re-derivable from public sources)
- reconstructability: how well the item survives lossy summarization (100 = a short summary preserves its value, 0 = only the full content is useful)

Rules:
- Score each dimension independently
- reasoning should be one or two sentences
- summary should be a 2-3 sentence abstract of the content
- Return ONLY a JSON object, no other text

Return a JSON object:
{"relevance": 0-100, "uniqueness": 0-100, "reconstructability": 0-100, "reasoning": "...", "summary": "..."}`,
		req.Title, req.ContentType, req.Tags, truncateContent(req.Content))
}

// DegradePrompt generates the prompt for producing reduced content when an
// item enters the summarized or minimal stage.
func DegradePrompt(req DegradeRequest) string {
	instructions := `- summary: condense the content to at most 10% of its length while keeping every concrete fact
- minimal_json: leave empty`
	if req.TargetStage == "minimal" {
		instructions = `- summary: leave empty
- minimal_json: a JSON object string with keys "title", "keywords" (max 10), "one_liner", the smallest useful trace of this item`
	}

	return fmt.Sprintf(`You are an archival degradation system. Produce reduced content for an item moving to the %s stage.

TITLE: %s

CONTENT:
%s

Rules:
%s
- Never invent facts that are not in the content
- Return ONLY a JSON object, no other text

Return a JSON object:
{"summary": "...", "minimal_json": "..."}`,
		req.TargetStage, req.Title, truncateContent(req.Content), instructions)
}

func truncateContent(s string) string {
	if len(s) <= maxPromptContent {
		return s
	}
	return s[:maxPromptContent] + "\n...(truncated)"
}
