package telegram

import (
	"testing"
	"time"

	tele "gopkg.in/telebot.v4"

	coreconfig "github.com/ranggaxyy/deplot-bot/core/config"
)

func TestBuildPollerWebhook(t *testing.T) {
	p := BuildPoller(PollerOptions{
		RunMode: "WEBHOOK",
		Webhook: coreconfig.WebhookConfig{URL: "https://bot.example/hook", Listen: "0.0.0.0", Port: 8443, SecretToken: "s3cret"},
	})
	wh, ok := p.(*tele.Webhook)
	if !ok {
		t.Fatalf("poller = %T, want *tele.Webhook", p)
	}
	if wh.Listen != "0.0.0.0:8443" || wh.SecretToken != "s3cret" || wh.Endpoint.PublicURL != "https://bot.example/hook" {
		t.Fatalf("unexpected webhook: %+v", wh)
	}
}

func TestBuildPollerLongPollDefaults(t *testing.T) {
	p := BuildPoller(PollerOptions{RunMode: coreconfig.RunModeLongpoll})
	lp, ok := p.(*tele.LongPoller)
	if !ok {
		t.Fatalf("poller = %T, want *tele.LongPoller", p)
	}
	if lp.Timeout != defaultLongPollTimeout || len(lp.AllowedUpdates) != 2 {
		t.Fatalf("unexpected long poller: %+v", lp)
	}
}

func TestHTTPClientOutlastsLongPoll(t *testing.T) {
	c := BuildHTTPClient(HTTPClientOptions{}, 50*time.Second)
	if c.Timeout <= 50*time.Second {
		t.Fatalf("client timeout %s does not outlast long poll", c.Timeout)
	}
}
