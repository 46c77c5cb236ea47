package keyboard

import "testing"

func TestChunk(t *testing.T) {
	btns := []InlineBtn{{Text: "a"}, {Text: "b"}, {Text: "c"}}
	rows := Chunk(btns, 2)
	if len(rows) != 2 || len(rows[0]) != 2 || len(rows[1]) != 1 {
		t.Fatalf("Chunk(3, 2) = %v", rows)
	}
	if rows := Chunk(btns, 0); len(rows) != 3 {
		t.Fatalf("Chunk(3, 0) rows = %d", len(rows))
	}
}

func TestInlineButtonsRowsKeepsUniqueAndData(t *testing.T) {
	m := InlineButtonsRows(
		[]InlineBtn{{Text: "🧮 Matematika", Unique: "category", Data: "math"}},
		nil,
		[]InlineBtn{{Text: "🏠 Menu", Unique: "menu"}},
	)
	if len(m.InlineKeyboard) != 2 {
		t.Fatalf("rows = %d, empty rows must be dropped", len(m.InlineKeyboard))
	}
	btn := m.InlineKeyboard[0][0]
	if btn.Text != "🧮 Matematika" || btn.Unique != "category" || btn.Data != "math" {
		t.Fatalf("button = %+v", btn)
	}
	if got := m.InlineKeyboard[1][0]; got.Unique != "menu" || got.Data != "" {
		t.Fatalf("menu button = %+v", got)
	}
}
