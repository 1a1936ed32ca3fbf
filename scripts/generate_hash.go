//go:build ignore

// generate_hash.go — утилита для генерации bcrypt-хеша пароля.
// Запуск: go run scripts/generate_hash.go ваш_пароль
//
// Результат можно вставить напрямую в колонку password_hash
// при ручном создании пользователя.
package main

import (
	"fmt"
	"os"

	"golang.org/x/crypto/bcrypt"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Использование: go run scripts/generate_hash.go <пароль>")
		os.Exit(1)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(os.Args[1]), bcrypt.DefaultCost)
	if err != nil {
		fmt.Printf("Ошибка генерации хеша: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Bcrypt-хеш пароля:")
	fmt.Println(string(hash))
}
