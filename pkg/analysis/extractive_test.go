package analysis

import (
	"context"
	"testing"

	"podcast-summary/pkg/domain"
)

func extractFrom(t *testing.T, text, digest string) *domain.AnalysisFragment {
	t.Helper()
	frag, err := NewExtractiveAnalyzer()(context.Background(), Request{
		VideoID:     "vid-1",
		Chunk:       domain.Chunk{Index: 0, TotalCount: 1, Text: text},
		PriorDigest: digest,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return frag
}

func TestExtractiveAnalyzer_ClassifiesSentencesByCue(t *testing.T) {
	text := "The key is that leverage compounds quietly over years. " +
		"I think most founders underestimate distribution entirely. " +
		"You should write down your decisions before outcomes arrive. " +
		"The weather was nice on the day we recorded this episode."

	frag := extractFrom(t, text, "")

	if len(frag.Insights) != 1 {
		t.Errorf("insights = %v, want the leverage sentence", frag.Insights)
	}
	if len(frag.Quotes) != 1 {
		t.Errorf("quotes = %v, want the founders sentence", frag.Quotes)
	}
	if len(frag.Takeaways) != 1 {
		t.Errorf("takeaways = %v, want the decisions sentence", frag.Takeaways)
	}
}

func TestExtractiveAnalyzer_SkipsSentencesAlreadyInDigest(t *testing.T) {
	sentence := "The key is that leverage compounds quietly over years"
	frag := extractFrom(t, sentence+". More filler words to round out this chunk.", sentence)

	if len(frag.Insights) != 0 {
		t.Fatalf("digest-covered sentence must not repeat, got %v", frag.Insights)
	}
}

func TestExtractiveAnalyzer_CapsPerChunkOutput(t *testing.T) {
	text := ""
	for i := 0; i < 10; i++ {
		text += "You should always keep position sizes small and survivable. "
	}

	frag := extractFrom(t, text, "")
	if len(frag.Takeaways) > maxChunkTakeaways {
		t.Fatalf("takeaways not capped: %d", len(frag.Takeaways))
	}
}

func TestExtractiveAnalyzer_EmptyChunkYieldsEmptyFragment(t *testing.T) {
	frag := extractFrom(t, "", "")
	if len(frag.Insights)+len(frag.Quotes)+len(frag.Takeaways) != 0 {
		t.Fatalf("empty chunk must yield an empty fragment: %+v", frag)
	}
}

func TestExtractiveAnalyzer_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewExtractiveAnalyzer()(ctx, Request{Chunk: domain.Chunk{Text: "some text"}})
	if err == nil {
		t.Fatalf("expected error for cancelled context")
	}
}
