package extractor

import "testing"

func TestExtractScenario(t *testing.T) {
	text := "(Bandura, 1977) and Kahneman and Tversky (1979) and (Diener et al., 2014)"

	cites := Dedup(Extract(text))
	if len(cites) != 3 {
		t.Fatalf("expected 3 unique citations, got %d: %+v", len(cites), cites)
	}

	wantKeys := []string{"bandura|1977|", "kahneman|1979|tversky", "diener|2014|"}
	for i, c := range cites {
		if c.DedupKey() != wantKeys[i] {
			t.Errorf("cites[%d].DedupKey() = %q, want %q", i, c.DedupKey(), wantKeys[i])
		}
	}
}

func TestExtractNarrative(t *testing.T) {
	cites := Extract("Bandura (1977) argued that...")
	if len(cites) != 1 || cites[0].Surname != "Bandura" || cites[0].Year != "1977" {
		t.Errorf("got %+v", cites)
	}
}

func TestExtractNDateMarker(t *testing.T) {
	cites := Extract("(Smith, n.d.)")
	if len(cites) != 1 || cites[0].Year != "n.d." {
		t.Errorf("got %+v", cites)
	}
}

func TestExtractMultiWorkParenthetical(t *testing.T) {
	cites := Extract("(Jones, 2001; Smith, 2010)")
	if len(cites) != 2 {
		t.Fatalf("expected 2 citations from multi-work parenthetical, got %d: %+v", len(cites), cites)
	}
}

func TestExtractRejectsLowercaseFalsePositive(t *testing.T) {
	cites := Extract("the (1977) study found nothing")
	if len(cites) != 0 {
		t.Errorf("expected no citations for a bare year in parens, got %+v", cites)
	}
}

func TestDedupPreservesFirstSeenOrder(t *testing.T) {
	cites := Extract("Jones (2001) and Smith (2010) and Jones (2001) again")
	deduped := Dedup(cites)
	if len(deduped) != 2 {
		t.Fatalf("expected 2 unique citations, got %d", len(deduped))
	}
	if deduped[0].Surname != "Jones" || deduped[1].Surname != "Smith" {
		t.Errorf("expected first-seen order Jones, Smith; got %+v", deduped)
	}
}
