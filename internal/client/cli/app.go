// Package cli implements the RunaVault command-line client. Commands run
// once from the command line, or in an interactive loop when none is given.
package cli

import (
	"bufio"
	"context"
	"errors"
	"io"
	"os"

	"github.com/dmitrijs2005/runavault/internal/client/client"
	"github.com/dmitrijs2005/runavault/internal/client/config"
	"github.com/dmitrijs2005/runavault/internal/vaultapi"
)

// VaultAPI is the remote surface the commands use.
type VaultAPI interface {
	Ping(ctx context.Context) error
	CreateSecret(ctx context.Context, req *vaultapi.CreateSecretRequest) (*vaultapi.Secret, error)
	GetSecret(ctx context.Context, site, subdirectory string) (*vaultapi.GetSecretResponse, error)
	ListSecrets(ctx context.Context) ([]vaultapi.Secret, error)
	EditSecret(ctx context.Context, req *vaultapi.EditSecretRequest) (*vaultapi.EditSecretResponse, error)
	DeleteSecret(ctx context.Context, req *vaultapi.DeleteSecretRequest) (int, error)
	ShareDirectory(ctx context.Context, subdirectory string, with vaultapi.SharedWith) ([]vaultapi.Secret, error)
	Close() error
}

type App struct {
	api    VaultAPI
	reader *bufio.Reader
	out    io.Writer

	// passphrase is asked once per session and reused.
	passphrase []byte
}

func NewApp(c *config.Config) (*App, error) {
	api, err := client.NewVaultClient(c.ServerEndpointAddr, c.Token, c.RequestTimeout)
	if err != nil {
		return nil, err
	}
	return newApp(api, bufio.NewReader(os.Stdin), os.Stdout), nil
}

func newApp(api VaultAPI, reader *bufio.Reader, out io.Writer) *App {
	return &App{api: api, reader: reader, out: out}
}

// Run executes args as a single command, or starts the interactive loop when
// args is empty.
func (a *App) Run(ctx context.Context, args []string) error {
	defer a.close()

	if len(args) == 0 {
		runREPL(ctx, a.Execute, a.reader, a.out)
		return nil
	}
	if err := a.Execute(ctx, args); err != nil && !errors.Is(err, errExit) {
		return err
	}
	return nil
}

func (a *App) close() {
	wipe(a.passphrase)
	a.passphrase = nil
	_ = a.api.Close()
}

func (a *App) vaultPassphrase() ([]byte, error) {
	if a.passphrase != nil {
		return a.passphrase, nil
	}
	p, err := GetPassword(a.out, "Vault passphrase: ")
	if err != nil {
		return nil, err
	}
	a.passphrase = p
	return p, nil
}
