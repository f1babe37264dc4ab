package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/dmitrijs2005/runavault/internal/common"
	"github.com/dmitrijs2005/runavault/internal/cryptox"
	"github.com/dmitrijs2005/runavault/internal/vaultapi"
)

const usage = `Commands:
  ping                               check the server
  list                               list your own and shared secrets
  get <site> [subdirectory]          show and decrypt a secret
  add                                add a secret (interactive)
  edit <site#password_id> [owner]    edit a secret (interactive)
  move <site#password_id> <subdir>   move a secret to another subdirectory
  delete <site> [subdirectory]       delete secrets of a site, or one by reference
  share <subdirectory>               share every secret of a subdirectory
  help | exit`

var errUsage = errors.New("wrong arguments, type 'help'")

// Execute runs one command.
func (a *App) Execute(ctx context.Context, args []string) error {
	cmd, rest := args[0], args[1:]

	switch cmd {
	case "help":
		fmt.Fprintln(a.out, usage)
		return nil
	case "exit", "quit":
		return errExit
	case "ping":
		return a.ping(ctx)
	case "l", "list":
		return a.list(ctx)
	case "get":
		return a.get(ctx, rest)
	case "add":
		return a.add(ctx)
	case "edit":
		return a.edit(ctx, rest)
	case "move":
		return a.move(ctx, rest)
	case "delete":
		return a.delete(ctx, rest)
	case "share":
		return a.share(ctx, rest)
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func (a *App) ping(ctx context.Context) error {
	if err := a.api.Ping(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "OK")
	return nil
}

func (a *App) list(ctx context.Context) error {
	secrets, err := a.api.ListSecrets(ctx)
	if err != nil {
		return err
	}
	if len(secrets) == 0 {
		fmt.Fprintln(a.out, "No secrets.")
		return nil
	}

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SITE\tSUBDIRECTORY\tUSERNAME\tOWNER\tSHARED WITH\tREF")
	for _, s := range secrets {
		owner := s.OwnerID
		if s.OwnedByMe {
			owner = "me"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			s.Site, s.Subdirectory, s.Username, owner, describeGrantees(s.SharedWith), s.Site+"#"+s.PasswordID)
	}
	return tw.Flush()
}

func describeGrantees(sw vaultapi.SharedWith) string {
	var parts []string
	for _, g := range sw.Groups {
		parts = append(parts, "group:"+g)
	}
	for _, u := range sw.Users {
		parts = append(parts, "user:"+u)
	}
	if len(parts) == 0 {
		return "-"
	}
	return strings.Join(parts, ",")
}

func (a *App) get(ctx context.Context, args []string) error {
	if len(args) < 1 || len(args) > 2 {
		return errUsage
	}
	sub := ""
	if len(args) == 2 {
		sub = args[1]
	}

	r, err := a.api.GetSecret(ctx, args[0], sub)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Site:         %s\n", r.Site)
	fmt.Fprintf(a.out, "Subdirectory: %s\n", r.Subdirectory)
	fmt.Fprintf(a.out, "Username:     %s\n", r.Username)
	fmt.Fprintf(a.out, "Owner:        %s (%s access)\n", r.OwnerID, r.Access)

	sealed, ok := sealedPassword(r.Password)
	if !ok {
		fmt.Fprintf(a.out, "Password:     %s\n", string(r.Password))
		return nil
	}

	pass, err := a.vaultPassphrase()
	if err != nil {
		return err
	}
	plain, err := cryptox.OpenPayload(sealed, pass)
	if err != nil {
		wipe(a.passphrase)
		a.passphrase = nil
		return err
	}
	defer wipe(plain)

	fmt.Fprintf(a.out, "Password:     %s\n", plain)
	return nil
}

// sealedPassword extracts the ciphertext from a payload envelope.
func sealedPassword(raw json.RawMessage) (string, bool) {
	var env struct {
		EncryptedPassword string `json:"encryptedPassword"`
	}
	if err := json.Unmarshal(raw, &env); err != nil || env.EncryptedPassword == "" {
		return "", false
	}
	return env.EncryptedPassword, true
}

// sealInput reads a password without echo and seals it with the vault
// passphrase. The result is the JSON string the server expects.
func (a *App) sealInput(prompt string) (json.RawMessage, error) {
	pw, err := GetPassword(a.out, prompt)
	if err != nil {
		return nil, err
	}
	defer wipe(pw)
	if len(pw) == 0 {
		return nil, nil
	}

	pass, err := a.vaultPassphrase()
	if err != nil {
		return nil, err
	}
	sealed, err := cryptox.SealPayload(pw, pass)
	if err != nil {
		return nil, err
	}
	return json.Marshal(sealed)
}

func (a *App) add(ctx context.Context) error {
	site, err := GetSimpleText(a.reader, "Site", a.out)
	if err != nil {
		return err
	}
	username, err := GetSimpleText(a.reader, "Username", a.out)
	if err != nil {
		return err
	}
	password, err := a.sealInput("Password: ")
	if err != nil {
		return err
	}
	if password == nil {
		return fmt.Errorf("%w: password is required", common.ErrorValidation)
	}
	sub, err := GetSimpleText(a.reader, "Subdirectory (empty for default)", a.out)
	if err != nil {
		return err
	}
	with, err := a.readGrantees()
	if err != nil {
		return err
	}
	notes, err := GetMultiline(a.reader, "Notes", a.out)
	if err != nil {
		return err
	}
	tags, err := GetSimpleText(a.reader, "Tags (comma separated)", a.out)
	if err != nil {
		return err
	}

	encrypted := true
	s, err := a.api.CreateSecret(ctx, &vaultapi.CreateSecretRequest{
		Site:         site,
		Username:     username,
		Password:     password,
		Encrypted:    &encrypted,
		SharedWith:   with,
		Subdirectory: sub,
		Notes:        notes,
		Tags:         splitList(tags),
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Created %s#%s\n", s.Site, s.PasswordID)
	return nil
}

func (a *App) readGrantees() (vaultapi.SharedWith, error) {
	groups, err := GetSimpleText(a.reader, "Share with groups (comma separated, empty for none)", a.out)
	if err != nil {
		return vaultapi.SharedWith{}, err
	}
	users, err := GetSimpleText(a.reader, "Share with users (comma separated, empty for none)", a.out)
	if err != nil {
		return vaultapi.SharedWith{}, err
	}
	editors, err := GetSimpleText(a.reader, "Groups with the editor role (comma separated)", a.out)
	if err != nil {
		return vaultapi.SharedWith{}, err
	}

	sw := vaultapi.SharedWith{Groups: splitList(groups), Users: splitList(users)}
	if e := splitList(editors); len(e) > 0 {
		sw.Roles = make(map[string]string, len(e))
		for _, g := range e {
			sw.Roles[g] = common.RoleEditor
		}
	}
	return sw, nil
}

func (a *App) edit(ctx context.Context, args []string) error {
	if len(args) < 1 || len(args) > 2 {
		return errUsage
	}
	req := &vaultapi.EditSecretRequest{Ref: args[0]}
	if len(args) == 2 {
		req.OwnerID = args[1]
	}

	username, err := GetSimpleText(a.reader, "New username (empty keeps current)", a.out)
	if err != nil {
		return err
	}
	if username != "" {
		req.Username = &username
	}

	password, err := a.sealInput("New password (empty keeps current): ")
	if err != nil {
		return err
	}
	req.Password = password

	notes, err := GetSimpleText(a.reader, "New notes (empty keeps current)", a.out)
	if err != nil {
		return err
	}
	if notes != "" {
		req.Notes = &notes
	}

	res, err := a.api.EditSecret(ctx, req)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Updated %s#%s to version %d\n", res.Secret.Site, res.Secret.PasswordID, res.Secret.Version)
	return nil
}

func (a *App) move(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return errUsage
	}
	sub := args[1]

	res, err := a.api.EditSecret(ctx, &vaultapi.EditSecretRequest{Ref: args[0], Subdirectory: &sub})
	if err != nil {
		return err
	}
	if res.Moved {
		fmt.Fprintf(a.out, "Moved to %s\n", res.Secret.Subdirectory)
	} else {
		fmt.Fprintln(a.out, "Already there")
	}
	return nil
}

func (a *App) delete(ctx context.Context, args []string) error {
	if len(args) < 1 || len(args) > 2 {
		return errUsage
	}
	req := &vaultapi.DeleteSecretRequest{Site: args[0]}
	if len(args) == 2 {
		req.Subdirectory = args[1]
	}

	n, err := a.api.DeleteSecret(ctx, req)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Deleted %d row(s)\n", n)
	return nil
}

func (a *App) share(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errUsage
	}

	with, err := a.readGrantees()
	if err != nil {
		return err
	}

	secrets, err := a.api.ShareDirectory(ctx, args[0], with)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Shared %d secret(s) in %s\n", len(secrets), args[0])
	return nil
}
