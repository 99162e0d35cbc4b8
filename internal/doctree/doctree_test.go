package doctree

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestKind_TextRoundTrip(t *testing.T) {
	for k := KindContainer; k <= KindText; k++ {
		b, err := k.MarshalText()
		if err != nil {
			t.Fatalf("marshal %d: %v", k, err)
		}
		var got Kind
		if err := got.UnmarshalText(b); err != nil {
			t.Fatalf("unmarshal %q: %v", b, err)
		}
		if got != k {
			t.Errorf("expected %v, got %v", k, got)
		}
	}
}

func TestKind_UnknownName(t *testing.T) {
	var k Kind
	if err := k.UnmarshalText([]byte("table")); err == nil {
		t.Error("expected error for unknown kind name")
	}
	if _, err := Kind(99).MarshalText(); err == nil {
		t.Error("expected error marshaling out-of-range kind")
	}
}

func TestKind_Composite(t *testing.T) {
	composite := []Kind{KindContainer, KindSection, KindTitle, KindParagraph, KindBulletList, KindEnumeratedList, KindListItem}
	for _, k := range composite {
		if !k.Composite() {
			t.Errorf("expected %v to be composite", k)
		}
	}
	leaves := []Kind{KindEmphasis, KindStrong, KindLiteral, KindLiteralBlock, KindText}
	for _, k := range leaves {
		if k.Composite() {
			t.Errorf("expected %v to be a leaf", k)
		}
	}
}

func TestNode_JSONShape(t *testing.T) {
	title := NewContainer(KindTitle)
	title.Append(NewText("Intro"))
	sec := NewSection(2, "intro", title)

	b, err := json.Marshal(sec)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := `{"type":"section","level":2,"id":"intro","children":[{"type":"title","children":[{"type":"text","text":"Intro"}]}]}`
	if string(b) != want {
		t.Errorf("expected %s, got %s", want, b)
	}

	var back Node
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if back.Title() == nil || PlainText(back.Title()) != "Intro" {
		t.Errorf("expected title %q after decode, got %+v", "Intro", back.Title())
	}
}

func TestPlainText_DocumentOrder(t *testing.T) {
	p := NewContainer(KindParagraph)
	p.Append(NewText("Hello "), NewLeaf(KindEmphasis, "big"), NewText(" world"))
	if got := PlainText(p); got != "Hello big world" {
		t.Errorf("expected %q, got %q", "Hello big world", got)
	}
}

func TestWalk_SkipsChildren(t *testing.T) {
	root := NewContainer(KindContainer)
	list := NewContainer(KindBulletList)
	list.Append(NewContainer(KindListItem))
	root.Append(list, NewContainer(KindParagraph))

	var seen []string
	Walk(root, func(n *Node) bool {
		seen = append(seen, n.Kind.String())
		return n.Kind != KindBulletList
	})
	got := strings.Join(seen, ",")
	if got != "container,bullet_list,paragraph" {
		t.Errorf("unexpected walk order %q", got)
	}
}

func TestCheck(t *testing.T) {
	title := NewContainer(KindTitle)
	title.Append(NewText("Intro"))
	para := NewContainer(KindParagraph)
	para.Append(NewText("Body "), NewLeaf(KindStrong, "bold"))
	good := NewContainer(KindContainer)
	good.Append(NewSection(2, "intro", title), para)
	if err := Check(good); err != nil {
		t.Fatalf("valid tree rejected: %v", err)
	}

	leafWithChildren := NewLeaf(KindEmphasis, "x")
	leafWithChildren.Append(NewText("y"))
	tests := map[string]*Node{
		"leaf with children": leafWithChildren,
		"composite with text": {Kind: KindParagraph, Text: "stray"},
		"section level 0":     {Kind: KindSection, Children: []*Node{NewContainer(KindTitle)}},
		"section level 7":     {Kind: KindSection, Level: 7},
	}
	for name, n := range tests {
		root := NewContainer(KindContainer)
		root.Append(n)
		if err := Check(root); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}
