package transcript

import (
	"strings"
	"sync"
	"testing"
	"time"
)

func TestAppendPreservesOrderAndGrowth(t *testing.T) {
	tr := New()
	kinds := []Kind{KindQuestion, KindAnswer, KindQuestion, KindQuestion, KindCode}

	prevLen := 0
	for i, k := range kinds {
		if _, err := tr.AppendCode(k, "entry", "go"); err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
		if tr.Len() != prevLen+1 {
			t.Fatalf("Len after append %d = %d, want %d", i, tr.Len(), prevLen+1)
		}
		prevLen = tr.Len()
	}

	entries := tr.Entries()
	for i, e := range entries {
		if e.Kind != kinds[i] {
			t.Errorf("entry %d kind = %q, want %q", i, e.Kind, kinds[i])
		}
		if i > 0 && e.ID <= entries[i-1].ID {
			t.Errorf("entry IDs not increasing: %s then %s", entries[i-1].ID, e.ID)
		}
	}
}

func TestLanguageOnlyOnCode(t *testing.T) {
	tr := New()
	a, _ := tr.AppendCode(KindAnswer, "text", "python")
	c, _ := tr.AppendCode(KindCode, "print(1)", "python")
	if a.Language != "" {
		t.Errorf("answer entry kept language %q", a.Language)
	}
	if c.Language != "python" {
		t.Errorf("code entry language = %q, want python", c.Language)
	}
}

func TestAppendRejectsUnknownKind(t *testing.T) {
	tr := New()
	if _, err := tr.Append(Kind("feedback"), "x"); err == nil {
		t.Error("Append should reject an unknown kind")
	}
	if tr.Len() != 0 {
		t.Error("rejected entry was stored")
	}
}

func TestEntriesReturnsCopy(t *testing.T) {
	tr := New()
	_, _ = tr.Append(KindQuestion, "original")

	got := tr.Entries()
	got[0].Content = "mutated"

	if tr.Entries()[0].Content != "original" {
		t.Error("mutating the returned slice changed the transcript")
	}
}

func TestLastAndCount(t *testing.T) {
	tr := New()
	_, _ = tr.Append(KindQuestion, "q1")
	_, _ = tr.Append(KindAnswer, "a1")
	_, _ = tr.Append(KindQuestion, "q2")

	last, ok := tr.Last(KindQuestion)
	if !ok || last.Content != "q2" {
		t.Errorf("Last(question) = %q, %v", last.Content, ok)
	}
	if _, ok := tr.Last(KindCode); ok {
		t.Error("Last(code) should report no entry")
	}
	if tr.Count(KindQuestion) != 2 || tr.Count(KindAnswer) != 1 {
		t.Errorf("Count mismatch: q=%d a=%d", tr.Count(KindQuestion), tr.Count(KindAnswer))
	}
}

func TestReset(t *testing.T) {
	tr := New()
	_, _ = tr.Append(KindQuestion, "q1")
	tr.Reset()
	if tr.Len() != 0 {
		t.Errorf("Len after Reset = %d", tr.Len())
	}
}

func TestConcurrentAppend(t *testing.T) {
	tr := New()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = tr.Append(KindAnswer, "a")
		}()
	}
	wg.Wait()
	if tr.Len() != 50 {
		t.Errorf("Len = %d, want 50", tr.Len())
	}
}

func TestRender(t *testing.T) {
	now := time.Now()
	entries := []Entry{
		{Kind: KindQuestion, Content: "What is a mutex?", CreatedAt: now},
		{Kind: KindAnswer, Content: "idk", CreatedAt: now},
		{Kind: KindCode, Content: "print(1)\n", Language: "python", CreatedAt: now},
	}
	got := Render(entries)
	want := "Interviewer: What is a mutex?\n" +
		"Candidate: idk\n" +
		"Candidate (code submission, python):\n```python\nprint(1)\n```"
	if got != want {
		t.Errorf("Render() =\n%s\nwant\n%s", got, want)
	}
}

func TestRenderLineCodeWithoutLanguage(t *testing.T) {
	got := RenderLine(Entry{Kind: KindCode, Content: "x := 1"})
	if !strings.HasPrefix(got, "Candidate (code submission, plain text):") {
		t.Errorf("RenderLine() = %q", got)
	}
}
