package adapter

import (
	"context"
	"strings"
	"testing"
	"time"

	tele "gopkg.in/telebot.v4"

	tg "github.com/ranggaxyy/deplot-bot/core/telegram"
	"github.com/ranggaxyy/deplot-bot/core/telegram/keyboard"
	"github.com/ranggaxyy/deplot-bot/internal/conversation"
)

type sent struct {
	text    string
	markup  *tele.ReplyMarkup
	replied bool
}

// recordingContext captures outbound calls instead of hitting the Bot API.
type recordingContext struct {
	tele.Context
	sent      []sent
	responses []*tele.CallbackResponse
}

func (r *recordingContext) Send(what interface{}, opts ...interface{}) error {
	s := sent{text: what.(string)}
	for _, o := range opts {
		if so, ok := o.(*tele.SendOptions); ok {
			s.markup = so.ReplyMarkup
		}
	}
	r.sent = append(r.sent, s)
	return nil
}

func (r *recordingContext) Reply(what interface{}, opts ...interface{}) error {
	if err := r.Send(what, opts...); err != nil {
		return err
	}
	r.sent[len(r.sent)-1].replied = true
	return nil
}

func (r *recordingContext) Respond(resp ...*tele.CallbackResponse) error {
	if len(resp) == 0 {
		r.responses = append(r.responses, nil)
		return nil
	}
	r.responses = append(r.responses, resp[0])
	return nil
}

func textUpdate(userID int64, text string) *recordingContext {
	return &recordingContext{Context: tele.NewContext(nil, tele.Update{
		ID: 1,
		Message: &tele.Message{
			Text:   text,
			Sender: &tele.User{ID: userID},
			Chat:   &tele.Chat{ID: userID + 1000},
		},
	})}
}

func buttonUpdate(userID int64, data string) *recordingContext {
	return &recordingContext{Context: tele.NewContext(nil, tele.Update{
		ID: 2,
		Callback: &tele.Callback{
			ID:     "cb",
			Data:   data,
			Sender: &tele.User{ID: userID},
		},
	})}
}

func captureEngine(out ...conversation.OutgoingMessage) (*conversation.Event, conversation.Engine) {
	var got conversation.Event
	return &got, conversation.EngineFunc(func(_ context.Context, ev conversation.Event) []conversation.OutgoingMessage {
		got = ev
		return out
	})
}

func TestEventFromText(t *testing.T) {
	now := time.Unix(500, 0)
	ev, ok := EventFrom(textUpdate(7, "56"), now)
	if !ok {
		t.Fatalf("expected event")
	}
	if ev.Kind != conversation.KindText || ev.UserID != 7 || ev.ChatID != 1007 || ev.Text != "56" || !ev.Timestamp.Equal(now) {
		t.Fatalf("unexpected event: %+v", ev)
	}
}

func TestEventFromCallbackCarriesTag(t *testing.T) {
	ev, ok := EventFrom(buttonUpdate(7, "\fcategory|math"), time.Now())
	if !ok {
		t.Fatalf("expected event")
	}
	if ev.Kind != conversation.KindButton || ev.Tag != "category:math" || ev.ChatID != 7 {
		t.Fatalf("unexpected event: %+v", ev)
	}
}

func TestHandleSendsHTMLWithKeyboard(t *testing.T) {
	got, engine := captureEngine(conversation.Message("<b>Halo</b>", conversation.KeyboardMainMenu))
	a, err := New(Options{Engine: engine, MenuButtons: []keyboard.InlineBtn{
		CategoryButton("🔢 Matematika", "math"),
		CategoryButton("🧩 Teka-teki", "riddle"),
		CategoryButton("🧠 Logika", "logic"),
	}})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	c := textUpdate(3, "/start")
	if err := a.Handle(c); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if got.Text != "/start" {
		t.Fatalf("engine saw %+v", got)
	}
	if len(c.sent) != 1 || c.sent[0].text != "<b>Halo</b>" {
		t.Fatalf("sent = %+v", c.sent)
	}
	kb := c.sent[0].markup
	if kb == nil || len(kb.InlineKeyboard) != 3 {
		t.Fatalf("main menu rows = %+v", kb)
	}
	if first := kb.InlineKeyboard[0][0]; first.Unique != conversation.TagCategory || first.Data != "math" {
		t.Fatalf("first button = %+v", first)
	}
	if last := kb.InlineKeyboard[2]; len(last) != 2 || last[0].Unique != conversation.TagHelp || last[1].Unique != conversation.TagStats {
		t.Fatalf("last row = %+v", last)
	}
	if len(c.responses) != 0 {
		t.Fatalf("text update must not answer a callback")
	}
}

func TestHandleAlertAnswersCallback(t *testing.T) {
	_, engine := captureEngine(conversation.OutgoingMessage{Text: "<b>Istirahat</b> &amp; tidur", Alert: true})
	a, _ := New(Options{Engine: engine})
	c := buttonUpdate(3, "\fmenu")
	if err := a.Handle(c); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(c.sent) != 0 {
		t.Fatalf("alert must not send a chat message: %+v", c.sent)
	}
	if len(c.responses) != 1 || c.responses[0] == nil || !c.responses[0].ShowAlert {
		t.Fatalf("responses = %+v", c.responses)
	}
	if c.responses[0].Text != "Istirahat & tidur" {
		t.Fatalf("alert text = %q", c.responses[0].Text)
	}
}

func TestHandleAcknowledgesPlainCallback(t *testing.T) {
	_, engine := captureEngine(conversation.Message("Soal", conversation.KeyboardBackToMenu))
	a, _ := New(Options{Engine: engine})
	c := buttonUpdate(3, "\fcategory|math")
	_ = a.Handle(c)
	if len(c.sent) != 1 || len(c.responses) != 1 || c.responses[0] != nil {
		t.Fatalf("sent=%d responses=%+v", len(c.sent), c.responses)
	}
	if kb := c.sent[0].markup; kb == nil || kb.InlineKeyboard[0][0].Unique != conversation.TagMenu {
		t.Fatalf("back keyboard = %+v", kb)
	}
}

func TestHandleThreadsRepliesUnderText(t *testing.T) {
	_, engine := captureEngine(conversation.OutgoingMessage{Text: "Tidur dulu", Reply: true})
	a, _ := New(Options{Engine: engine})

	c := textUpdate(3, "halo")
	if err := a.Handle(c); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(c.sent) != 1 || !c.sent[0].replied {
		t.Fatalf("text should get a threaded reply: %+v", c.sent)
	}

	b := buttonUpdate(3, "\fmenu")
	if err := a.Handle(b); err != nil {
		t.Fatalf("handle button: %v", err)
	}
	if len(b.sent) != 1 || b.sent[0].replied || len(b.responses) != 1 {
		t.Fatalf("button press: sent=%+v responses=%+v", b.sent, b.responses)
	}
}

func TestKeyboardGenderChoice(t *testing.T) {
	a, _ := New(Options{Engine: conversation.EngineFunc(nil)})
	kb := a.Keyboard(conversation.KeyboardGenderChoice)
	row := kb.InlineKeyboard[0]
	if len(row) != 2 || row[0].Data != "male" || row[1].Data != "female" {
		t.Fatalf("gender row = %+v", row)
	}
	if a.Keyboard(conversation.KeyboardNone) != nil {
		t.Fatalf("none hint should have no markup")
	}
}

func TestRegisterWiresCommandsAndCallbacks(t *testing.T) {
	_, engine := captureEngine()
	a, _ := New(Options{Engine: engine, Commands: []Command{
		{Name: conversation.CmdStart, Description: "Mulai"},
		{Name: conversation.CmdMenu, Description: "Menu", Hidden: true},
	}})
	reg := tg.NewRegistry()
	if err := a.Register(reg); err != nil {
		t.Fatalf("register: %v", err)
	}
	if len(reg.Commands()) != 2 || len(reg.ListCommands(true)) != 1 {
		t.Fatalf("commands = %v", reg.ListCommands(false))
	}
	if got := strings.Join(reg.ListCallbacks(), ","); got != "category,gender,help,menu,stats" {
		t.Fatalf("callbacks = %s", got)
	}
	if reg.TextFallback() == nil {
		t.Fatalf("text fallback not set")
	}
}

func TestNewRequiresEngine(t *testing.T) {
	if _, err := New(Options{}); err == nil {
		t.Fatalf("expected error")
	}
}
