package discord

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"playlink/internal/application"
	"playlink/internal/models"
	"playlink/pkg/config"

	"github.com/bwmarrin/discordgo"
)

type Bot struct {
	session  *discordgo.Session
	services *application.Service
	logger   application.Logger

	guildID string
}

func NewBot(cfg *config.Config, services *application.Service, logger application.Logger) *Bot {
	s, _ := discordgo.New("Bot " + cfg.DiscordToken)

	return &Bot{
		session:  s,
		services: services,
		logger:   logger,
		guildID:  cfg.GuildID,
	}
}

var commands = []*discordgo.ApplicationCommand{
	{
		Name:        "link",
		Description: "Redeem a link code from the game client",
		Options: []*discordgo.ApplicationCommandOption{
			{Type: discordgo.ApplicationCommandOptionString, Name: "code", Description: "The 6-digit code shown in game", Required: true},
		},
	},
	{Name: "status", Description: "Show your linked game accounts"},
	{Name: "unlink", Description: "Unlink your game accounts"},
	{
		Name:        "delete_code",
		Description: "Permanently remove a link record (support only)",
		Options: []*discordgo.ApplicationCommandOption{
			{Type: discordgo.ApplicationCommandOptionString, Name: "code", Description: "Record code", Required: true},
		},
	},
	{Name: "links", Description: "List all link records (support only)"},
	{Name: "export", Description: "Export all link records to Excel (support only)"},
	{
		Name:        "support_add",
		Description: "Add a support staff member (owner only)",
		Options: []*discordgo.ApplicationCommandOption{
			{Type: discordgo.ApplicationCommandOptionUser, Name: "user", Description: "User to add", Required: true},
		},
	},
	{
		Name:        "support_remove",
		Description: "Remove a support staff member (owner only)",
		Options: []*discordgo.ApplicationCommandOption{
			{Type: discordgo.ApplicationCommandOptionUser, Name: "user", Description: "User to remove", Required: true},
		},
	},
}

func (b *Bot) Init() error {
	b.session.AddHandler(b.onInteraction)
	return nil
}

func (b *Bot) Run(ctx context.Context) error {
	if err := b.session.Open(); err != nil {
		return err
	}

	b.logger.Info("Discord Bot Started. Registering slash commands...")

	_, err := b.session.ApplicationCommandBulkOverwrite(b.session.State.User.ID, b.guildID, commands)
	if err != nil {
		b.logger.Error("Failed to register commands: %v", err)
	} else {
		b.logger.Info("Slash commands registered successfully")
	}

	return nil
}

func (b *Bot) Stop() {
	b.session.Close()
}

func (b *Bot) onInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}

	switch i.ApplicationCommandData().Name {
	case "link":
		b.handleLink(s, i.Interaction)
	case "status":
		b.handleStatus(s, i.Interaction)
	case "unlink":
		b.handleUnlink(s, i.Interaction)
	case "delete_code":
		b.handleDeleteCode(s, i.Interaction)
	case "links":
		b.handleLinks(s, i.Interaction)
	case "export":
		b.handleExport(s, i.Interaction)
	case "support_add":
		b.handleSupportAdd(s, i.Interaction)
	case "support_remove":
		b.handleSupportRemove(s, i.Interaction)
	}
}

func (b *Bot) handleLink(s *discordgo.Session, i *discordgo.Interaction) {
	code := i.ApplicationCommandData().Options[0].StringValue()
	callerID := interactionUserID(i)

	rec, err := b.services.Links.Redeem(code, callerID)
	if err != nil {
		b.respondMessage(s, i, userMessage(err), true)
		return
	}

	b.respondEmbed(s, i, recordEmbed("Account linked", *rec), true)

	// Best effort, matches the old bot: a DM confirming the link.
	if ch, err := s.UserChannelCreate(callerID); err == nil {
		s.ChannelMessageSend(ch.ID, fmt.Sprintf("Your game account %s is now linked.", rec.GameAccountID))
	}
}

func (b *Bot) handleStatus(s *discordgo.Session, i *discordgo.Interaction) {
	callerID := interactionUserID(i)

	recs, err := b.services.Links.LinkedRecords(callerID)
	if err != nil {
		b.respondMessage(s, i, userMessage(err), true)
		return
	}

	if len(recs) == 0 {
		b.respondMessage(s, i, "You have no linked game accounts.", true)
		return
	}

	var embeds []*discordgo.MessageEmbed
	for _, rec := range recs {
		embeds = append(embeds, recordEmbed("Linked account", rec))
	}
	s.InteractionRespond(i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: embeds,
			Flags:  discordgo.MessageFlagsEphemeral,
		},
	})
}

func (b *Bot) handleUnlink(s *discordgo.Session, i *discordgo.Interaction) {
	callerID := interactionUserID(i)

	count, err := b.services.Links.Unlink(callerID)
	if err != nil {
		b.respondMessage(s, i, userMessage(err), true)
		return
	}

	if count == 0 {
		b.respondMessage(s, i, "You are not linked to any game account.", true)
		return
	}
	b.respondMessage(s, i, fmt.Sprintf("Unlinked %d game account(s).", count), true)
}

func (b *Bot) handleDeleteCode(s *discordgo.Session, i *discordgo.Interaction) {
	code := i.ApplicationCommandData().Options[0].StringValue()

	err := b.services.Links.DeleteCode(code, interactionUserID(i))
	if err != nil {
		b.respondMessage(s, i, userMessage(err), true)
		return
	}
	b.respondMessage(s, i, fmt.Sprintf("Link record `%s` deleted.", code), true)
}

func (b *Bot) handleLinks(s *discordgo.Session, i *discordgo.Interaction) {
	recs, err := b.services.Links.ListAll(interactionUserID(i))
	if err != nil {
		b.respondMessage(s, i, userMessage(err), true)
		return
	}

	if len(recs) == 0 {
		b.respondMessage(s, i, "No link records.", true)
		return
	}

	var sb bytes.Buffer
	fmt.Fprintf(&sb, "Link records (%d):\n\n", len(recs))
	for _, rec := range recs {
		fmt.Fprintf(&sb, "`%s` **%s** — %s (caller: %s)\n",
			rec.Code, rec.GameAccountID, rec.State, orDash(rec.CallerID))
	}

	msg := sb.String()
	if len(msg) > 2000 {
		msg = msg[:1990] + "...\n(truncated)"
	}
	b.respondMessage(s, i, msg, true)
}

func (b *Bot) handleExport(s *discordgo.Session, i *discordgo.Interaction) {
	s.InteractionRespond(i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Flags: discordgo.MessageFlagsEphemeral,
		},
	})

	data, err := b.services.Links.ExportReport(interactionUserID(i))
	if err != nil {
		msg := userMessage(err)
		s.InteractionResponseEdit(i, &discordgo.WebhookEdit{Content: &msg})
		return
	}

	msg := "Here is the link record export."
	s.InteractionResponseEdit(i, &discordgo.WebhookEdit{
		Content: &msg,
		Files: []*discordgo.File{
			{Name: "link_records.xlsx", Reader: bytes.NewReader(data)},
		},
	})
}

func (b *Bot) handleSupportAdd(s *discordgo.Session, i *discordgo.Interaction) {
	user := i.ApplicationCommandData().Options[0].UserValue(s)

	err := b.services.Auth.AddSupport(interactionUserID(i), user.ID)
	if err != nil {
		b.respondMessage(s, i, userMessage(err), true)
		return
	}
	b.respondMessage(s, i, fmt.Sprintf("**%s** is now support staff.", user.Username), true)
}

func (b *Bot) handleSupportRemove(s *discordgo.Session, i *discordgo.Interaction) {
	user := i.ApplicationCommandData().Options[0].UserValue(s)

	err := b.services.Auth.RemoveSupport(interactionUserID(i), user.ID)
	if err != nil {
		b.respondMessage(s, i, userMessage(err), true)
		return
	}
	b.respondMessage(s, i, fmt.Sprintf("**%s** is no longer support staff.", user.Username), true)
}

func recordEmbed(title string, rec models.LinkRecord) *discordgo.MessageEmbed {
	linkedAt := "—"
	if rec.LinkedAt != nil {
		linkedAt = rec.LinkedAt.Format(time.RFC3339)
	}

	return &discordgo.MessageEmbed{
		Title: title,
		Color: 0x2ECC71,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Game account", Value: rec.GameAccountID, Inline: true},
			{Name: "Code", Value: rec.Code, Inline: true},
			{Name: "State", Value: string(rec.State), Inline: true},
			{Name: "Hardware ID", Value: orDash(rec.HardwareID), Inline: true},
			{Name: "Address", Value: orDash(rec.NetworkAddress), Inline: true},
			{Name: "Caller", Value: orDash(rec.CallerID), Inline: true},
			{Name: "Created", Value: rec.CreatedAt.Format(time.RFC3339), Inline: true},
			{Name: "Linked", Value: linkedAt, Inline: true},
		},
	}
}

func orDash(s string) string {
	if s == "" {
		return "—"
	}
	return s
}
