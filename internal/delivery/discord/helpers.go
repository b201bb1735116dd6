package discord

import (
	"errors"

	"playlink/internal/application"

	"github.com/bwmarrin/discordgo"
)

// interactionUserID works for both guild interactions (Member set) and DMs
// (User set).
func interactionUserID(i *discordgo.Interaction) string {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User.ID
	}
	if i.User != nil {
		return i.User.ID
	}
	return ""
}

func userMessage(err error) string {
	switch {
	case errors.Is(err, application.ErrNotFound):
		return "Code not found. Check the code shown in game and try again."
	case errors.Is(err, application.ErrForbidden):
		return "You don't have permission to do that."
	case errors.Is(err, application.ErrConflict):
		return "That game account is already linked to you."
	case errors.Is(err, application.ErrInvalidInput):
		return "Invalid input: " + err.Error()
	default:
		return "Internal error. Please try again later."
	}
}

func (b *Bot) respondMessage(s *discordgo.Session, i *discordgo.Interaction, msg string, ephemeral bool) {
	flags := discordgo.MessageFlags(0)
	if ephemeral {
		flags = discordgo.MessageFlagsEphemeral
	}
	s.InteractionRespond(i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: msg,
			Flags:   flags,
		},
	})
}

func (b *Bot) respondEmbed(s *discordgo.Session, i *discordgo.Interaction, embed *discordgo.MessageEmbed, ephemeral bool) {
	flags := discordgo.MessageFlags(0)
	if ephemeral {
		flags = discordgo.MessageFlagsEphemeral
	}
	s.InteractionRespond(i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{embed},
			Flags:  flags,
		},
	})
}
