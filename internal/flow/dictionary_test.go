package flow

import (
	"fmt"
	"strings"
	"testing"

	"github.com/m3rciful/lingobot/internal/models"
)

func TestDictAddTwoStepDialog(t *testing.T) {
	fx := newFixture(t)

	out := fx.handle(t, Event{UserID: 1, Command: "/add"})
	if out == nil || !strings.Contains(out.Text, "слово") {
		t.Fatalf("unexpected prompt: %+v", out)
	}

	out = fx.handle(t, Event{UserID: 1, Text: " kitap "})
	if out == nil || !strings.Contains(out.Text, "kitap") {
		t.Fatalf("translation prompt missing the word: %+v", out)
	}

	var p DictAddPayload
	fx.decodePayload(t, 1, StateDictAddCustom, &p)
	if p.Step != DictAddStepTranslation || p.Word != "kitap" {
		t.Fatalf("payload after step one = %+v", p)
	}

	out = fx.handle(t, Event{UserID: 1, Text: "книга"})
	if out == nil || !strings.Contains(out.Text, "kitap — книга") {
		t.Fatalf("confirmation missing: %+v", out)
	}
	fx.mustIdle(t, 1)

	if len(fx.vocab.custom) != 1 {
		t.Fatalf("custom entries = %d, want 1", len(fx.vocab.custom))
	}
	v := fx.vocab.custom[0]
	if v.Word != "kitap" || v.Translation != "книга" || v.OwnerID != 1 {
		t.Fatalf("unexpected entry: %+v", v)
	}
}

func TestDictAddEmptyMessageRetries(t *testing.T) {
	fx := newFixture(t)

	fx.handle(t, Event{UserID: 1, Command: "/add"})
	out := fx.handle(t, Event{UserID: 1, Text: "   "})
	if out == nil || !strings.Contains(out.Text, "пустое") {
		t.Fatalf("unexpected output: %+v", out)
	}

	var p DictAddPayload
	fx.decodePayload(t, 1, StateDictAddCustom, &p)
	if p.Step != DictAddStepWord {
		t.Fatalf("step advanced to %q on empty input", p.Step)
	}
}

func TestDictSearchPagination(t *testing.T) {
	fx := newFixture(t)
	for i := 0; i < 12; i++ {
		fx.vocab.results = append(fx.vocab.results, models.Vocabulary{
			ID: int64(200 + i), Word: fmt.Sprintf("ev%d", i), Translation: fmt.Sprintf("дом%d", i),
		})
	}

	fx.handle(t, Event{UserID: 1, Command: "/dict"})
	out := fx.handle(t, Event{UserID: 1, Text: "ev"})
	if out == nil {
		t.Fatal("search produced no instruction")
	}
	if !strings.Contains(out.Text, "найдено 12") || !strings.Contains(out.Text, "Страница 1 из 3") {
		t.Fatalf("first page header wrong: %q", out.Text)
	}
	if !strings.Contains(out.Text, "ev0") || strings.Contains(out.Text, "ev5") {
		t.Fatalf("first page rows wrong: %q", out.Text)
	}

	out = fx.handle(t, Event{UserID: 1, Token: EncodeTokenInts(ActionDictPage, 1)})
	if out == nil || !strings.Contains(out.Text, "Страница 2 из 3") || !strings.Contains(out.Text, "ev5") {
		t.Fatalf("second page wrong: %+v", out)
	}
	if !out.Edit {
		t.Fatal("page flip should edit the message in place")
	}

	// The query survives in the payload between flips.
	var p DictSearchPayload
	fx.decodePayload(t, 1, StateDictSearch, &p)
	if p.Query != "ev" || p.Page != 1 {
		t.Fatalf("payload = %+v", p)
	}

	// Last page has only a back button plus the cancel row.
	out = fx.handle(t, Event{UserID: 1, Token: EncodeTokenInts(ActionDictPage, 2)})
	if out == nil || !strings.Contains(out.Text, "ev11") {
		t.Fatalf("last page wrong: %+v", out)
	}
	if len(out.Buttons) != 2 || len(out.Buttons[0]) != 1 {
		t.Fatalf("last page buttons = %+v", out.Buttons)
	}
}

func TestDictSearchNoResultsEndsFlow(t *testing.T) {
	fx := newFixture(t)

	fx.handle(t, Event{UserID: 1, Command: "/dict"})
	out := fx.handle(t, Event{UserID: 1, Text: "yok"})
	if out == nil || !strings.Contains(out.Text, "ничего не найдено") {
		t.Fatalf("unexpected output: %+v", out)
	}
	fx.mustIdle(t, 1)

	// Pagination callbacks after the flow ended are no-ops.
	if out := fx.handle(t, Event{UserID: 1, Token: EncodeTokenInts(ActionDictPage, 1)}); out != nil {
		t.Fatalf("stale page flip produced %+v", out)
	}
}
