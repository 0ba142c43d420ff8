//go:build ignore

// referral.go — утилита для работы с реферальными кодами.
//
//	go run scripts/referral.go secret              — новый REFERRAL_SECRET для .env
//	go run scripts/referral.go encode <user_id>    — код и ссылка пользователя
//	go run scripts/referral.go decode <код>        — user_id из кода
//
// encode/decode читают REFERRAL_SECRET из окружения.
package main

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"os"
	"strconv"

	"serotonyl.ru/fitmates-bot/internal/features/friends"
)

func main() {
	if len(os.Args) < 2 {
		usage()
	}

	switch os.Args[1] {
	case "secret":
		buf := make([]byte, 32)
		if _, err := rand.Read(buf); err != nil {
			fmt.Fprintln(os.Stderr, "Ошибка генерации:", err)
			os.Exit(1)
		}
		fmt.Println("REFERRAL_SECRET=" + base64.RawURLEncoding.EncodeToString(buf))

	case "encode":
		if len(os.Args) < 3 {
			usage()
		}
		id, err := strconv.ParseInt(os.Args[2], 10, 64)
		if err != nil || id <= 0 {
			fmt.Fprintln(os.Stderr, "Некорректный user_id:", os.Args[2])
			os.Exit(1)
		}
		codec := mustCodec()
		fmt.Println("Код:   ", codec.Encode(id))
		fmt.Println("Ссылка:", codec.Link(botUsername(), id))

	case "decode":
		if len(os.Args) < 3 {
			usage()
		}
		id, err := mustCodec().Decode(os.Args[2])
		if err != nil {
			fmt.Fprintln(os.Stderr, "Не удалось расшифровать:", err)
			os.Exit(1)
		}
		fmt.Println(id)

	default:
		usage()
	}
}

func mustCodec() *friends.Codec {
	codec, err := friends.NewCodec(os.Getenv("REFERRAL_SECRET"))
	if err != nil {
		fmt.Fprintln(os.Stderr, "REFERRAL_SECRET:", err)
		os.Exit(1)
	}
	return codec
}

func botUsername() string {
	if name := os.Getenv("BOT_USERNAME"); name != "" {
		return name
	}
	return "fitmatesbot"
}

func usage() {
	fmt.Println("Использование: go run scripts/referral.go secret | encode <user_id> | decode <код>")
	os.Exit(1)
}
