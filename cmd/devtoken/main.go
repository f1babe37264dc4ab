// Command devtoken mints a signed access token for local development. It
// reads the same config file and -s/-t flags as the server.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/dmitrijs2005/runavault/internal/flagx"
	"github.com/dmitrijs2005/runavault/internal/server/auth"
	"github.com/dmitrijs2005/runavault/internal/server/config"
	"github.com/dmitrijs2005/runavault/internal/server/models"
)

func main() {
	cfg := config.LoadConfig()

	var id models.Identity
	var groups string

	fs := flag.NewFlagSet("devtoken", flag.ExitOnError)
	fs.StringVar(&id.Subject, "sub", "", "subject (user id)")
	fs.StringVar(&groups, "groups", "", "comma separated groups")
	fs.StringVar(&id.Email, "email", "", "email")
	fs.StringVar(&id.Username, "username", "", "username")
	_ = fs.Parse(flagx.FilterArgs(os.Args[1:], []string{"-sub", "-groups", "-email", "-username"}))

	if id.Subject == "" {
		fmt.Fprintln(os.Stderr, "usage: devtoken -sub <user id> [-groups a,b] [-email e] [-username u] [-s secret] [-t minutes]")
		os.Exit(2)
	}
	for _, g := range strings.Split(groups, ",") {
		if g = strings.TrimSpace(g); g != "" {
			id.Groups = append(id.Groups, g)
		}
	}

	token, err := auth.GenerateToken(id, []byte(cfg.SecretKey), cfg.AccessTokenValidityDuration)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Println(token)
}
