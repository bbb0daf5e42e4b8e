package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/aryan0dhankhar/gymdesk/internal/domain"
	"github.com/aryan0dhankhar/gymdesk/internal/security"
	"github.com/aryan0dhankhar/gymdesk/internal/security/auth"
)

func main() {
	if len(os.Args) < 2 {
		printUsage(os.Stderr)
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	var err error
	switch command {
	case "check":
		err = runCheck(args, os.Stdout)
	case "token":
		err = runToken(args, os.Stdout)
	case "login":
		err = runLogin(args)
	case "logout":
		err = runLogout()
	case "me":
		err = runMe(os.Stdout)
	case "gyms":
		err = runGyms(os.Stdout)
	case "help":
		printUsage(os.Stdout)
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", command)
		printUsage(os.Stderr)
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// runCheck evaluates the role policy for the given facts without touching the
// backend. With no -action it prints every action.
func runCheck(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("check", flag.ContinueOnError)
	fs.SetOutput(out)
	role := fs.String("role", "", "profile role (superadmin, gym_owner, gym_admin, receptionist, member)")
	profile := fs.String("profile", "", "profile id")
	assigned := fs.String("assigned", "", "assigned gym id")
	gym := fs.String("gym", "", "gym id")
	owner := fs.String("owner", "", "gym owner id")
	action := fs.String("action", "", "single action to evaluate")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *role == "" || *gym == "" {
		return errors.New("-role and -gym are required")
	}

	r, known := domain.ParseRole(*role)
	if !known {
		fmt.Fprintf(out, "warning: unknown role %q is denied everywhere\n", *role)
	}
	subject := security.Subject{ProfileID: *profile, Role: r, AssignedGymID: *assigned}
	ref := security.GymRef{ID: *gym, OwnerID: *owner}

	actions := security.Actions()
	if *action != "" {
		actions = []security.Action{security.Action(*action)}
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ACTION\tDECISION")
	for _, a := range actions {
		decision := "deny"
		if security.Allowed(a, subject, ref) {
			decision = "allow"
		}
		fmt.Fprintf(w, "%s\t%s\n", a, decision)
	}
	return w.Flush()
}

// runToken mints a development session token signed with the backend secret
func runToken(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("token", flag.ContinueOnError)
	fs.SetOutput(out)
	secret := fs.String("secret", os.Getenv("SUPABASE_JWT_SECRET"), "JWT secret (default $SUPABASE_JWT_SECRET)")
	user := fs.String("user", "", "profile id (token subject)")
	email := fs.String("email", "", "email claim")
	ttl := fs.Duration("ttl", time.Hour, "token lifetime")
	save := fs.Bool("save", false, "store the token for later commands")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *secret == "" || *user == "" {
		return errors.New("-secret and -user are required")
	}

	token, err := auth.NewTokenManager(*secret, "", "").GenerateToken(*user, *email, *ttl)
	if err != nil {
		return err
	}
	if *save {
		if err := saveToken(token); err != nil {
			return err
		}
	}
	fmt.Fprintln(out, token)
	return nil
}

func runLogin(args []string) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	token := fs.String("token", "", "session access token (reads stdin when empty)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	value := strings.TrimSpace(*token)
	if value == "" {
		data, err := io.ReadAll(io.LimitReader(os.Stdin, 16<<10))
		if err != nil {
			return err
		}
		value = strings.TrimSpace(string(data))
	}
	if value == "" {
		return errors.New("no token given")
	}
	if err := saveToken(value); err != nil {
		return err
	}
	fmt.Println("✓ Token saved")
	return nil
}

func runLogout() error {
	if err := os.Remove(tokenFile()); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	fmt.Println("✓ Logged out")
	return nil
}

func runMe(out io.Writer) error {
	var p domain.Profile
	if err := getJSON("/me", &p); err != nil {
		return err
	}
	gym := "-"
	if id := p.EffectiveGymID(); id != "" {
		gym = id
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "ID\t%s\n", p.ID)
	fmt.Fprintf(w, "EMAIL\t%s\n", p.Email)
	fmt.Fprintf(w, "ROLE\t%s\n", p.Role)
	fmt.Fprintf(w, "GYM\t%s\n", gym)
	return w.Flush()
}

func runGyms(out io.Writer) error {
	var body struct {
		Gyms []domain.Gym `json:"gyms"`
	}
	if err := getJSON("/gyms", &body); err != nil {
		return err
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tSTATUS\tOWNER")
	for _, g := range body.Gyms {
		owner := g.Owner()
		if owner == "" {
			owner = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", g.ID, g.Name, g.Status, owner)
	}
	return w.Flush()
}

func getJSON(path string, dest any) error {
	req, err := http.NewRequest(http.MethodGet, apiURL()+path, nil)
	if err != nil {
		return err
	}
	if token := loadToken(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	client := &http.Client{
		Timeout: 15 * time.Second,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusSeeOther:
		return errors.New("not logged in (run gymctl login)")
	case resp.StatusCode >= 300:
		var e struct {
			Error string `json:"error"`
		}
		json.NewDecoder(resp.Body).Decode(&e)
		if e.Error == "" {
			e.Error = http.StatusText(resp.StatusCode)
		}
		return fmt.Errorf("%s (status %d)", e.Error, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(dest)
}

func apiURL() string {
	if url := os.Getenv("GYMDESK_API"); url != "" {
		return strings.TrimRight(url, "/")
	}
	return "http://localhost:8080/api"
}

func tokenFile() string {
	if path := os.Getenv("GYMDESK_TOKEN_FILE"); path != "" {
		return path
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".gymdesk", "token")
}

func saveToken(token string) error {
	path := tokenFile()
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(token), 0o600)
}

func loadToken() string {
	data, _ := os.ReadFile(tokenFile())
	return strings.TrimSpace(string(data))
}

func printUsage(w io.Writer) {
	fmt.Fprint(w, `gymdesk operator CLI

Usage:
  gymctl <command> [options]

Commands:
  check    Evaluate the role policy for given facts (offline)
  token    Mint a development session token
  login    Store a session token for later commands
  logout   Remove the stored token
  me       Show the calling profile
  gyms     List the gyms the caller can see
  help     Show this help message

Environment Variables:
  GYMDESK_API           API endpoint (default: http://localhost:8080/api)
  GYMDESK_TOKEN_FILE    Token location (default: ~/.gymdesk/token)
  SUPABASE_JWT_SECRET   Secret used by "token"

Examples:
  gymctl check -role gym_admin -profile p-1 -assigned g-1 -gym g-1 -owner o-1
  gymctl token -user p-1 -email admin@example.com -save
  gymctl gyms
`)
}
