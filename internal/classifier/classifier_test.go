package classifier

import (
	"reflect"
	"strings"
	"testing"

	"github.com/starford/notamaton/internal/testutil"
	"github.com/starford/notamaton/internal/vault"
)

func testClassifier(t *testing.T) *Classifier {
	t.Helper()
	cfg := DefaultConfig()
	cfg.MinContentLength = 0
	return New(testutil.TestTaxonomy(t), cfg)
}

func doc(path, title, body string) *vault.Document {
	return &vault.Document{Path: path, Title: title, Body: body}
}

const frenchRevolutionBody = `A revolução transformou a frança por completo.
O liberalismo ganhou força na frança revolucionária.
O legado do liberalismo e da frança segue vivo, e o liberalismo inspirou o mundo.`

func TestClassify_FrenchRevolutionScenario(t *testing.T) {
	c := testClassifier(t)

	p := c.Classify(doc("revolucao-francesa.md", "Revolução Francesa", frenchRevolutionBody))
	if p == nil {
		t.Fatal("expected a proposal")
	}
	if p.Area != "História Mundial" || p.Subarea != "Revoluções" || p.Topic != "Revolução Francesa" {
		t.Errorf("path = %s / %s / %s", p.Area, p.Subarea, p.Topic)
	}
	if p.Confidence < 0.3 {
		t.Errorf("confidence = %f, want >= 0.3", p.Confidence)
	}
	if p.Confidence > 1 {
		t.Errorf("confidence = %f, want <= 1", p.Confidence)
	}
	if len(p.Tags) > 5 {
		t.Errorf("tags = %v, want at most 5", p.Tags)
	}
	if !containsAll(p.Tags, "revolução", "frança") {
		t.Errorf("tags = %v, want revolução and frança", p.Tags)
	}
	if p.Relevance < 1 || p.Relevance > 5 {
		t.Errorf("relevance = %d, want within [1,5]", p.Relevance)
	}
}

func TestClassify_NoKeywordSignalYieldsNoProposal(t *testing.T) {
	c := testClassifier(t)
	p := c.Classify(doc("receita.md", "Bolo de cenoura", "Misture os ovos com o açúcar e leve ao forno por quarenta minutos."))
	if p != nil {
		t.Fatalf("expected no proposal, got %+v", p)
	}
}

func TestClassify_BelowThresholdYieldsNoProposal(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MinContentLength = 0
	cfg.MinConfidence = 0.99
	c := New(testutil.TestTaxonomy(t), cfg)

	// One weak match buried in long unrelated text dilutes confidence.
	filler := strings.Repeat("palavras completamente desconexas sem relacionamento nenhum aqui dentro ", 20)
	p := c.Classify(doc("fraco.md", "Sem sinal", filler+" inflação "+filler))
	if p != nil {
		t.Fatalf("expected no proposal below threshold, got confidence %f", p.Confidence)
	}
}

func TestClassify_Deterministic(t *testing.T) {
	c := testClassifier(t)
	d := doc("revolucao-francesa.md", "Revolução Francesa", frenchRevolutionBody)

	first := c.Classify(d)
	for i := 0; i < 5; i++ {
		again := c.Classify(d)
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("run %d differs:\n%+v\n%+v", i, first, again)
		}
	}
}

func TestClassify_TieBreaksByDeclarationOrder(t *testing.T) {
	c := testClassifier(t)
	// "revolução" alone hits both Revolução Francesa and Revolução Russa
	// with the same score; the earlier-declared topic must win.
	p := c.Classify(doc("rev.md", "Revolução", "Texto neutro sobre temas diversos e cotidianos quaisquer."))
	if p == nil {
		t.Fatal("expected a proposal")
	}
	if p.Topic != "Revolução Francesa" {
		t.Errorf("topic = %q, want the earlier-declared node", p.Topic)
	}
}

func TestClassify_TitleOutweighsBody(t *testing.T) {
	c := testClassifier(t)
	// Body leans MERCOSUL (two hits), title names monetary policy once;
	// with TitleWeight 3 the title wins.
	p := c.Classify(doc("x.md", "Inflação", "O mercosul firmou acordos importantes. O mercosul avançou bastante na região."))
	if p == nil {
		t.Fatal("expected a proposal")
	}
	if p.Area != "ECONOMIA" {
		t.Errorf("area = %q, want title-driven ECONOMIA", p.Area)
	}
}

func TestClassify_ConfidenceMonotonicity(t *testing.T) {
	c := testClassifier(t)

	base := "Considerações gerais valem registro neste caderno de anotações corriqueiras com inflação presente."
	superset := base + " Os juros subiram conforme o banco central indicou."

	a := c.Classify(doc("a.md", "", base))
	b := c.Classify(doc("b.md", "", superset))
	if a == nil || b == nil {
		t.Fatal("expected proposals for both texts")
	}
	if b.Confidence < a.Confidence {
		t.Errorf("confidence(B) = %f < confidence(A) = %f", b.Confidence, a.Confidence)
	}
}

func TestClassify_ConnectionsAreSiblingTopics(t *testing.T) {
	c := testClassifier(t)
	body := "A revolução na frança dialogou com o movimento bolchevique posterior, e o liberalismo os separava."
	p := c.Classify(doc("rev.md", "Revolução Francesa", body))
	if p == nil {
		t.Fatal("expected a proposal")
	}
	if !reflect.DeepEqual(p.Connections, []string{"Revolução Russa"}) {
		t.Errorf("connections = %v, want [Revolução Russa]", p.Connections)
	}
}

func TestClassify_SkipsShortBodies(t *testing.T) {
	cfg := DefaultConfig()
	c := New(testutil.TestTaxonomy(t), cfg)
	if p := c.Classify(doc("curta.md", "Revolução Francesa", "frança")); p != nil {
		t.Fatalf("expected no proposal for a body under %d bytes", cfg.MinContentLength)
	}
}

func TestRelevancePolicy_BonusesAndClamps(t *testing.T) {
	p := DefaultRelevancePolicy()

	if got := p.Score("ECONOMIA", 0.9, 2000); got != 5 {
		t.Errorf("priority+high+long = %d, want 5 (clamped)", got)
	}
	if got := p.Score("História Mundial", 0.5, 500); got != 3 {
		t.Errorf("neutral = %d, want base 3", got)
	}
	if got := p.Score("História Mundial", 0.1, 100); got != 1 {
		t.Errorf("low+short = %d, want 1", got)
	}
}

func TestRelevancePolicy_Monotone(t *testing.T) {
	p := DefaultRelevancePolicy()
	if p.Score("ECONOMIA", 0.9, 2000) < p.Score("ECONOMIA", 0.5, 2000) {
		t.Error("higher confidence lowered the score")
	}
	if p.Score("ECONOMIA", 0.9, 2000) < p.Score("ECONOMIA", 0.9, 500) {
		t.Error("longer content lowered the score")
	}
}

func TestProposalHash_StableAndSensitive(t *testing.T) {
	p := Proposal{Path: "a.md", Area: "ECONOMIA", Confidence: 0.5, Tags: []string{"x"}, Relevance: 3}
	if p.Hash() != p.Hash() {
		t.Error("hash not stable")
	}
	q := p
	q.Relevance = 4
	if p.Hash() == q.Hash() {
		t.Error("hash ignores relevance change")
	}
}

func containsAll(haystack []string, wanted ...string) bool {
	set := make(map[string]struct{}, len(haystack))
	for _, h := range haystack {
		set[h] = struct{}{}
	}
	for _, w := range wanted {
		if _, ok := set[w]; !ok {
			return false
		}
	}
	return true
}
