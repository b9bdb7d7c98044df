package main

import "whatsappbot/cmd/whatsapp-bot/command"

func main() {
	command.Execute()
}
