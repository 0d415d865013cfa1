package main

import (
	"testing"

	"github.com/AlexanderMakarov/tgjournals/internal/bot"
	"github.com/AlexanderMakarov/tgjournals/internal/telegram"
	"github.com/stretchr/testify/assert"
)

func TestCommandsRegistered(t *testing.T) {
	var names []string
	for _, c := range rootCmd.Commands() {
		names = append(names, c.Name())
	}
	assert.Subset(t, names, []string{"serve", "migrate", "version"})
	assert.NotNil(t, rootCmd.PersistentFlags().Lookup("config"))
}

func TestMenuCommands(t *testing.T) {
	out := menuCommands([]bot.MenuCommand{
		{Command: "start", Description: "Start"},
		{Command: "help", Description: "Help"},
	})
	assert.Equal(t, []telegram.BotCommand{
		{Command: "start", Description: "Start"},
		{Command: "help", Description: "Help"},
	}, out)
}
