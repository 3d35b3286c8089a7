// Command rdapctl is a small CLI wrapping the rdap client: one positional
// query, auto-classified unless overridden, printed as text or JSON.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/rdapkit/rdap"
	"github.com/rdapkit/rdap/internal/logx"
)

const (
	exitSuccess      = 0
	exitQueryFailed  = 1
	exitInvalidUsage = 2
	exitNotFound     = 3
)

var (
	flagType       string
	flagServer     string
	flagFormat     string
	flagJSONSource string
	flagTimeout    float64
	flagNoReferral bool
	flagVerbose    bool
	flagUpdate     bool
)

func main() {
	os.Exit(run())
}

func run() int {
	root := &cobra.Command{
		Use:           "rdapctl <query>",
		Short:         "Look up domains, IPs, ASNs, entities and nameservers over RDAP",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.Flags().StringVarP(&flagType, "type", "t", "", "override classification: domain|tld|ip|cidr|autnum|entity|nameserver")
	root.Flags().StringVarP(&flagServer, "server", "s", "", "override the resolved RDAP base URL")
	root.Flags().StringVarP(&flagFormat, "format", "f", "text", "output format: text|json|json-pretty")
	root.Flags().StringVar(&flagJSONSource, "json-source", "registry", "object to print in json/json-pretty modes: registry|registrar")
	root.Flags().Float64Var(&flagTimeout, "timeout", 30, "request timeout in seconds")
	root.Flags().BoolVar(&flagNoReferral, "no-referral", false, "do not chase the registrar referral")
	root.Flags().BoolVarP(&flagVerbose, "verbose", "v", false, "log request/retry/referral diagnostics to stderr")
	root.Flags().BoolVarP(&flagUpdate, "update", "u", false, "refresh bootstrap files and exit")

	exitCode := exitSuccess
	root.RunE = func(cmd *cobra.Command, args []string) error {
		code, err := execute(cmd, args)
		exitCode = code
		return err
	}

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "rdapctl:", err)
		if exitCode == exitSuccess {
			exitCode = exitInvalidUsage
		}
	}
	return exitCode
}

func execute(cmd *cobra.Command, args []string) (int, error) {
	if flagUpdate {
		return doUpdate(cmd.Context())
	}
	if len(args) != 1 {
		return exitInvalidUsage, fmt.Errorf("expected exactly one query argument")
	}
	kind, err := parseKindOverride(flagType)
	if err != nil {
		return exitInvalidUsage, err
	}
	switch flagFormat {
	case "text", "json", "json-pretty":
	default:
		return exitInvalidUsage, fmt.Errorf("invalid --format %q: want text|json|json-pretty", flagFormat)
	}
	switch flagJSONSource {
	case "registry", "registrar":
	default:
		return exitInvalidUsage, fmt.Errorf("invalid --json-source %q: want registry|registrar", flagJSONSource)
	}

	c := newClient()
	ctx := context.Background()

	var res *rdap.RdapQueryResult
	if kind != nil {
		res, err = c.QueryAs(ctx, args[0], *kind)
	} else {
		res, err = c.Query(ctx, args[0])
	}
	if err != nil {
		if k, ok := rdap.KindOf(err); ok && k == rdap.NotFound {
			fmt.Fprintln(os.Stderr, "rdapctl:", err)
			return exitNotFound, nil
		}
		fmt.Fprintln(os.Stderr, "rdapctl:", err)
		return exitQueryFailed, nil
	}

	render(res)
	return exitSuccess, nil
}

func doUpdate(ctx context.Context) (int, error) {
	if _, err := rdap.LoadConfig(); err != nil {
		return exitQueryFailed, fmt.Errorf("reloading config: %w", err)
	}
	c := newClient()
	if err := c.RefreshBootstrap(ctx); err != nil {
		return exitQueryFailed, fmt.Errorf("refreshing bootstrap files: %w", err)
	}
	if err := c.RefreshTLDList(ctx); err != nil {
		return exitQueryFailed, fmt.Errorf("refreshing tld list: %w", err)
	}
	fmt.Println("bootstrap files and tld list refreshed")
	return exitSuccess, nil
}

// newClient layers config-file defaults under explicit flag overrides
// (§4.6: the core never depends on where Config came from).
func newClient() *rdap.Client {
	cfg, err := rdap.LoadConfig()
	opts := []rdap.Option{}
	if err == nil {
		opts = append(opts, rdap.ApplyConfig(cfg)...)
	}

	if flagVerbose {
		log := logx.New()
		log.SetLevel(logx.LevelDebug)
		opts = append(opts, rdap.WithLogger(log))
	}
	if flagServer != "" {
		opts = append(opts, rdap.WithOverrideServer(flagServer))
	}
	if flagTimeout > 0 {
		opts = append(opts, rdap.WithTimeout(time.Duration(flagTimeout*float64(time.Second))))
	}
	if flagNoReferral {
		opts = append(opts, rdap.WithFollowReferral(false))
	}
	return rdap.New(opts...)
}

func parseKindOverride(s string) (*rdap.QueryKind, error) {
	if s == "" {
		return nil, nil
	}
	var k rdap.QueryKind
	switch s {
	case "domain":
		k = rdap.KindDomain
	case "tld":
		k = rdap.KindTld
	case "ip":
		k = rdap.KindIp
	case "cidr":
		k = rdap.KindCidr
	case "autnum", "asn":
		k = rdap.KindAutnum
	case "entity":
		k = rdap.KindEntity
	case "nameserver", "ns":
		k = rdap.KindNameserver
	default:
		return nil, fmt.Errorf("invalid --type %q: want domain|tld|ip|cidr|autnum|entity|nameserver", s)
	}
	return &k, nil
}
