package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/example/goshop/internal/config"
	"github.com/example/goshop/internal/infra/logger"
	"github.com/example/goshop/internal/repository/sqlstore"
	"github.com/example/goshop/internal/service"
)

// createadmin 交互式创建管理员账号
func main() {
	configPath := flag.String("config", "", "path to config yaml")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		panic(err)
	}
	log := logger.Init(&cfg.Log)
	defer log.Sync()

	db := sqlstore.Init(&cfg.Database)
	users := service.NewUserService(sqlstore.NewUserRepository(db), &cfg.JWT)

	in := bufio.NewReader(os.Stdin)
	req := &service.RegisterRequest{
		Email:     prompt(in, "Email: "),
		FirstName: prompt(in, "First name: "),
		LastName:  prompt(in, "Last name: "),
	}

	password, err := readPassword("Password: ")
	if err != nil {
		log.Fatal("read password failed", zap.Error(err))
	}
	confirm, err := readPassword("Password (again): ")
	if err != nil {
		log.Fatal("read password failed", zap.Error(err))
	}
	if password != confirm {
		fmt.Fprintln(os.Stderr, "Error: passwords didn't match.")
		os.Exit(1)
	}
	req.Password = password

	u, err := users.CreateAdmin(context.Background(), req)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Admin user %s created successfully (id=%d).\n", u.Email, u.ID)
}

func prompt(in *bufio.Reader, label string) string {
	fmt.Print(label)
	line, _ := in.ReadString('\n')
	return strings.TrimSpace(line)
}

func readPassword(label string) (string, error) {
	fmt.Print(label)
	b, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	return string(b), err
}
