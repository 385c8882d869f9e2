package main

import (
	"github.com/tanpawarit/storage-chat-agent/cmd"
	_ "github.com/tanpawarit/storage-chat-agent/pkg/logger/autoload"
)

func main() {
	cmd.Execute()
}
