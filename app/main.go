package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/quick"
	"github.com/go-pkgz/lgr"
	"github.com/jessevdk/go-flags"
	"gopkg.in/yaml.v3"

	"github.com/gurza/gist/lib/gist"
)

var revision = "unknown" // set by ldflags

type options struct {
	Token      string        `long:"token" env:"AUTH_TOKEN" description:"github access token"`
	TokenFile  string        `long:"token-file" env:"AUTH_TOKEN_PATH" description:"file with the github access token"`
	Config     string        `long:"config" env:"GIST_CONFIG" description:"yaml config file"`
	Timeout    time.Duration `long:"timeout" default:"5s" description:"single attempt timeout"`
	RetryCount int           `long:"retry-count" default:"2" description:"retries on transport failures"`
	RetryDelay time.Duration `long:"retry-delay" default:"500ms" description:"delay slept after each attempt"`
	PasteURL   string        `long:"paste-url" description:"paste service base URL"`
	Dbg        bool          `long:"dbg" env:"DEBUG" description:"debug mode"`

	ListCmd     listCmd     `command:"list" description:"list gists of the authenticated user"`
	PublicCmd   publicCmd   `command:"public" description:"list public gists"`
	StarredCmd  starredCmd  `command:"starred" description:"list starred gists"`
	GetCmd      getCmd      `command:"get" description:"show a gist"`
	CreateCmd   createCmd   `command:"create" description:"create a gist"`
	UpdateCmd   updateCmd   `command:"update" description:"update one file of a gist"`
	DeleteCmd   deleteCmd   `command:"delete" description:"delete a gist"`
	StarCmd     starCmd     `command:"star" description:"star a gist"`
	UnstarCmd   unstarCmd   `command:"unstar" description:"unstar a gist"`
	ForkCmd     forkCmd     `command:"fork" description:"fork a gist"`
	ForksCmd    forksCmd    `command:"forks" description:"list forks of a gist"`
	CommitsCmd  commitsCmd  `command:"commits" description:"list revision history of a gist"`
	RevisionCmd revisionCmd `command:"revision" description:"show a gist at a revision"`
}

// fileConfig mirrors the global flags in a yaml file, flags win over it.
type fileConfig struct {
	Token      string `yaml:"token"`
	TokenFile  string `yaml:"token_file"`
	Timeout    string `yaml:"timeout"`
	RetryCount *int   `yaml:"retry_count"`
	RetryDelay string `yaml:"retry_delay"`
	PasteURL   string `yaml:"paste_url"`
}

var opts options

func main() {
	fmt.Printf("gist-cli %s\n", revision)

	p := flags.NewParser(&opts, flags.Default)
	p.CommandHandler = func(command flags.Commander, args []string) error {
		setupLog(opts.Dbg)
		if err := loadConfig(&opts); err != nil {
			return err
		}
		return command.Execute(args)
	}
	if _, err := p.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}
}

func setupLog(dbg bool) {
	if dbg {
		lgr.Setup(lgr.Debug, lgr.CallerFile, lgr.CallerFunc, lgr.Msec, lgr.LevelBraces)
		return
	}
	lgr.Setup(lgr.Msec, lgr.LevelBraces)
}

// loadConfig merges the optional yaml config into unset flags.
func loadConfig(o *options) error {
	if o.Config == "" {
		return nil
	}
	data, err := os.ReadFile(o.Config) //nolint:gosec // config path provided by the user
	if err != nil {
		return fmt.Errorf("failed to read config %s: %w", o.Config, err)
	}
	var fc fileConfig
	if err = yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("failed to parse config %s: %w", o.Config, err)
	}

	if o.Token == "" {
		o.Token = fc.Token
	}
	if o.TokenFile == "" {
		o.TokenFile = fc.TokenFile
	}
	if o.PasteURL == "" {
		o.PasteURL = fc.PasteURL
	}
	if fc.Timeout != "" {
		if o.Timeout, err = time.ParseDuration(fc.Timeout); err != nil {
			return fmt.Errorf("bad timeout in config: %w", err)
		}
	}
	if fc.RetryDelay != "" {
		if o.RetryDelay, err = time.ParseDuration(fc.RetryDelay); err != nil {
			return fmt.Errorf("bad retry_delay in config: %w", err)
		}
	}
	if fc.RetryCount != nil {
		o.RetryCount = *fc.RetryCount
	}
	return nil
}

func makeClient() (*gist.Client, error) {
	clOpts := []gist.Option{
		gist.WithTimeout(opts.Timeout),
		gist.WithRetry(opts.RetryCount, opts.RetryDelay),
		gist.WithLogger(lgr.Default()),
	}
	if opts.Token != "" {
		clOpts = append(clOpts, gist.WithToken(opts.Token))
	}
	if opts.TokenFile != "" {
		clOpts = append(clOpts, gist.WithTokenFile(opts.TokenFile))
	}
	if opts.PasteURL != "" {
		clOpts = append(clOpts, gist.WithPasteURL(opts.PasteURL))
	}
	return gist.New(clOpts...)
}

func printEnvelope(env gist.Envelope) error {
	data, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to render response: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

type pageOpts struct {
	PerPage int    `long:"per-page" default:"30" description:"results per page, max 100"`
	Page    int    `long:"page" default:"1" description:"page number"`
	Since   string `long:"since" description:"only gists updated after this ISO 8601 timestamp"`
}

func (p pageOpts) params() gist.ListParams {
	return gist.ListParams{PerPage: p.PerPage, Page: p.Page, Since: p.Since}
}

type gistIDArg struct {
	ID string `positional-arg-name:"id" required:"yes" description:"gist id"`
}

type listCmd struct{ pageOpts }

func (c *listCmd) Execute(_ []string) error {
	client, err := makeClient()
	if err != nil {
		return err
	}
	env, err := client.List(context.Background(), c.params())
	if err != nil {
		return err
	}
	return printEnvelope(env)
}

type publicCmd struct{ pageOpts }

func (c *publicCmd) Execute(_ []string) error {
	client, err := makeClient()
	if err != nil {
		return err
	}
	env, err := client.Public(context.Background(), c.params())
	if err != nil {
		return err
	}
	return printEnvelope(env)
}

type starredCmd struct{ pageOpts }

func (c *starredCmd) Execute(_ []string) error {
	client, err := makeClient()
	if err != nil {
		return err
	}
	env, err := client.Starred(context.Background(), c.params())
	if err != nil {
		return err
	}
	return printEnvelope(env)
}

type getCmd struct {
	Paste  bool      `long:"paste" description:"upload the gist content to the paste service"`
	Render bool      `long:"render" description:"print files with syntax highlighting instead of json"`
	Args   gistIDArg `positional-args:"yes"`
}

func (c *getCmd) Execute(_ []string) error {
	client, err := makeClient()
	if err != nil {
		return err
	}

	var env gist.Envelope
	if c.Paste {
		env, err = client.GetWithPaste(context.Background(), c.Args.ID)
	} else {
		env, err = client.Get(context.Background(), c.Args.ID)
	}
	if err != nil {
		return err
	}

	if !c.Render {
		return printEnvelope(env)
	}

	g, err := gist.AsGist(env)
	if err != nil {
		return err
	}
	for name, f := range g.Files {
		fmt.Printf("== %s (%s)\n", name, f.Language)
		renderFile(name, f.Content)
		fmt.Println()
	}
	if g.PastedURL != "" {
		fmt.Printf("pasted: %s\n", g.PastedURL)
	}
	return nil
}

// renderFile highlights content for the terminal, falling back to plain text
// when the lexer or formatter can't handle it.
func renderFile(name, content string) {
	lexName := "plaintext"
	if lexer := lexers.Match(name); lexer != nil {
		lexName = lexer.Config().Name
	}
	if err := quick.Highlight(os.Stdout, content, lexName, "terminal256", "monokai"); err != nil {
		fmt.Print(content)
	}
}

type createCmd struct {
	Files  []string `long:"file" short:"f" description:"file to include, repeatable"`
	Name   string   `long:"name" description:"file name for inline content"`
	Desc   string   `long:"desc" description:"gist description"`
	Public bool     `long:"public" description:"make the gist public"`
	Args   struct {
		Text string `positional-arg-name:"text" description:"inline content, ignored when --file is given"`
	} `positional-args:"yes"`
}

func (c *createCmd) Execute(_ []string) error {
	client, err := makeClient()
	if err != nil {
		return err
	}

	content := gist.Text(c.Args.Text)
	if len(c.Files) == 1 {
		content = gist.File(c.Files[0])
	}
	if len(c.Files) > 1 {
		content = gist.Files(c.Files...)
	}

	env, err := client.Create(context.Background(), content, gist.CreateOptions{
		FileName:    c.Name,
		Description: c.Desc,
		Public:      c.Public,
	})
	if err != nil {
		return err
	}
	return printEnvelope(env)
}

type updateCmd struct {
	File string `long:"file" short:"f" description:"read new content from this file"`
	Desc string `long:"desc" description:"new gist description"`
	Args struct {
		ID       string `positional-arg-name:"id" required:"yes" description:"gist id"`
		Filename string `positional-arg-name:"filename" required:"yes" description:"file inside the gist to update"`
		Text     string `positional-arg-name:"text" description:"inline content, ignored when --file is given"`
	} `positional-args:"yes"`
}

func (c *updateCmd) Execute(_ []string) error {
	client, err := makeClient()
	if err != nil {
		return err
	}

	content := gist.Text(c.Args.Text)
	if c.File != "" {
		content = gist.File(c.File)
	}

	env, err := client.Update(context.Background(), c.Args.ID, c.Args.Filename, content, c.Desc)
	if err != nil {
		return err
	}
	return printEnvelope(env)
}

type deleteCmd struct {
	Args gistIDArg `positional-args:"yes"`
}

func (c *deleteCmd) Execute(_ []string) error {
	client, err := makeClient()
	if err != nil {
		return err
	}
	env, err := client.Delete(context.Background(), c.Args.ID)
	if err != nil {
		return err
	}
	return printEnvelope(env)
}

type starCmd struct {
	Check bool      `long:"check" description:"only check the star status"`
	Args  gistIDArg `positional-args:"yes"`
}

func (c *starCmd) Execute(_ []string) error {
	client, err := makeClient()
	if err != nil {
		return err
	}
	var env gist.Envelope
	if c.Check {
		env, err = client.IsStarred(context.Background(), c.Args.ID)
	} else {
		env, err = client.Star(context.Background(), c.Args.ID)
	}
	if err != nil {
		return err
	}
	return printEnvelope(env)
}

type unstarCmd struct {
	Args gistIDArg `positional-args:"yes"`
}

func (c *unstarCmd) Execute(_ []string) error {
	client, err := makeClient()
	if err != nil {
		return err
	}
	env, err := client.Unstar(context.Background(), c.Args.ID)
	if err != nil {
		return err
	}
	return printEnvelope(env)
}

type forkCmd struct {
	Args gistIDArg `positional-args:"yes"`
}

func (c *forkCmd) Execute(_ []string) error {
	client, err := makeClient()
	if err != nil {
		return err
	}
	env, err := client.Fork(context.Background(), c.Args.ID)
	if err != nil {
		return err
	}
	return printEnvelope(env)
}

type forksCmd struct {
	pageOpts
	Args gistIDArg `positional-args:"yes"`
}

func (c *forksCmd) Execute(_ []string) error {
	client, err := makeClient()
	if err != nil {
		return err
	}
	env, err := client.Forks(context.Background(), c.Args.ID, c.params())
	if err != nil {
		return err
	}
	return printEnvelope(env)
}

type commitsCmd struct {
	pageOpts
	Args gistIDArg `positional-args:"yes"`
}

func (c *commitsCmd) Execute(_ []string) error {
	client, err := makeClient()
	if err != nil {
		return err
	}
	env, err := client.Commits(context.Background(), c.Args.ID, c.params())
	if err != nil {
		return err
	}
	return printEnvelope(env)
}

type revisionCmd struct {
	Args struct {
		ID  string `positional-arg-name:"id" required:"yes" description:"gist id"`
		SHA string `positional-arg-name:"sha" required:"yes" description:"revision sha"`
	} `positional-args:"yes"`
}

func (c *revisionCmd) Execute(_ []string) error {
	client, err := makeClient()
	if err != nil {
		return err
	}
	env, err := client.Revision(context.Background(), c.Args.ID, c.Args.SHA)
	if err != nil {
		return err
	}
	return printEnvelope(env)
}
