package main

import (
	"os"

	"dano.kr/youthscope/internal/app"
)

func main() {
	os.Exit(app.Run(os.Args[1:]))
}
