// Package slack posts pantry confirmations and recipe cards to an incoming
// webhook.
package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"pantrychef/pantry"
	"pantrychef/quantity"
	"pantrychef/recipe"
)

type doer interface {
	Do(req *http.Request) (*http.Response, error)
}

type Client struct {
	webhookURL string
	httpClient doer
}

func NewClient(webhookURL string, httpClient doer) *Client {
	return &Client{
		webhookURL: webhookURL,
		httpClient: httpClient,
	}
}

// PostRecipeCard posts r, organised into phases, as a recipe card.
func (c *Client) PostRecipeCard(ctx context.Context, channel string, r recipe.Recipe) error {
	card := FormatRecipeCard(r, recipe.OrganizeIntoPhases(r))
	if err := c.PostMessage(ctx, channel, card); err != nil {
		return fmt.Errorf("post recipe card %q: %w", r.Name, err)
	}
	return nil
}

// PostConfirmation announces a pantry change. Results that did not succeed
// or carry no message are not posted.
func (c *Client) PostConfirmation(ctx context.Context, channel string, res pantry.Result) error {
	if !res.Succeeded() || res.Message == "" {
		slog.Debug("SLACK: Skipping confirmation", "outcome", res.Outcome, "action", res.Action)
		return nil
	}
	if err := c.PostMessage(ctx, channel, FormatConfirmation(res)); err != nil {
		return fmt.Errorf("post %s confirmation: %w", res.Action, err)
	}
	return nil
}

func (c *Client) PostMessage(ctx context.Context, channel string, message string) error {
	payload, err := json.Marshal(map[string]any{
		"channel": channel,
		"text":    message,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.webhookURL, bytes.NewReader(payload))
	if err != nil {
		return err
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		slog.Warn("SLACK: Webhook rejected message", "channel", channel, "status", resp.Status)
		return fmt.Errorf("failed to post message: %s", resp.Status)
	}

	slog.Info("SLACK: Message posted", "channel", channel, "bytes", len(payload))
	return nil
}

var actionIcons = map[pantry.ActionType]string{
	pantry.ActionAddIngredient:    ":heavy_plus_sign:",
	pantry.ActionEditIngredient:   ":pencil2:",
	pantry.ActionDeleteIngredient: ":wastebasket:",
	pantry.ActionUpdateQuantity:   ":scales:",
}

// FormatConfirmation renders a pantry result as one mrkdwn line. Edits also
// show the ingredient's stock, which their message leaves out.
func FormatConfirmation(res pantry.Result) string {
	text := res.Message
	if icon, ok := actionIcons[res.Action]; ok {
		text = icon + " " + text
	}
	if ing := res.Ingredient; ing != nil && res.Action == pantry.ActionEditIngredient {
		text += fmt.Sprintf(" _(%s: %s %s)_", ing.Name, quantity.Format(ing.Quantity), ing.Unit)
	}
	return text
}
