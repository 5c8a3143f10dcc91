// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/siemens/subdig/output"
	"github.com/siemens/subdig/resolver"
	"github.com/siemens/subdig/scan"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/net/idna"
)

// Flag names; they double as configuration keys.
const (
	domainFlag      = "domain"
	wordlistFlag    = "wordlist"
	threadsFlag     = "threads"
	outputFlag      = "output"
	formatFlag      = "format"
	resolverFlag    = "resolver"
	dnsTimeoutFlag  = "dns-timeout"
	tcpFlag         = "tcp"
	containerFlag   = "container"
	netnsFlag       = "netns"
	dockerHostFlag  = "docker-host"
	pingFlag        = "ping"
	metricsAddrFlag = "metrics-addr"
	hideDeadFlag    = "hide-dead"
	noColorFlag     = "no-color"
	quietFlag       = "quiet"
	spinnerFlag     = "spinner"
	configFlag      = "config"
	debugFlag       = "debug"
	logLevelFlag    = "log-level"
	logFormatFlag   = "log-format"
	logFileFlag     = "log-file"
)

const maxThreads = 10000

func newRootCmd() *cobra.Command {
	return newRootCmdWithViper(viper.New())
}

// newRootCmdWithViper returns the root command with its flags bound to the
// specified viper instance.
func newRootCmdWithViper(v *viper.Viper) (rootCmd *cobra.Command) {
	var cfg *config
	var closeLog func()

	rootCmd = &cobra.Command{
		Use:   "subdig -d domain -w wordlist [flags]",
		Short: "subdig digs up live subdomains by resolving candidate names from a wordlist",
		Example: `  subdig -d example.com -w wordlist.txt
  subdig -d example.com -w wordlist.txt -t 50
  subdig -d example.com -w wordlist.txt -o results.txt`,
		Version: "1.0",
		Args:    cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			if cfg, err = loadConfig(v); err != nil {
				return err
			}
			closeLog, err = setupLogging(cfg)
			return err
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			// From here on, errors are no longer usage errors.
			cmd.SilenceUsage = true
			defer closeLog()
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return ScanAndReport(ctx, cfg, cmd.OutOrStdout())
		},
	}
	// Sets up the flags.
	flags := rootCmd.PersistentFlags()
	flags.StringP(domainFlag, "d", "", "target domain (required)")
	flags.StringP(wordlistFlag, "w", "", "path to subdomain wordlist file (required)")
	flags.IntP(threadsFlag, "t", scan.DefaultSize, "number of concurrent lookups")
	flags.StringP(outputFlag, "o", "", "file to save live subdomains to")
	flags.String(formatFlag, string(output.Text), "output file format: text, json, csv, or yaml")
	flags.StringSlice(resolverFlag, nil, "DNS servers to query directly, instead of using the system resolver")
	flags.Duration(dnsTimeoutFlag, resolver.DefaultTimeout, "timeout of each query to the --resolver DNS servers")
	flags.Bool(tcpFlag, false, "query the --resolver DNS servers via TCP instead of UDP")
	flags.String(containerFlag, "", "scan from inside the network namespace of this Docker container")
	flags.String(netnsFlag, "", "scan from inside the network namespace referenced by this path")
	flags.String(dockerHostFlag, "", "Docker daemon API endpoint")
	flags.Bool(pingFlag, false, "verify the reachability of live subdomains by pinging them")
	flags.String(metricsAddrFlag, "", "serve Prometheus metrics on this address while scanning")
	flags.Bool(hideDeadFlag, false, "do not report dead subdomains")
	flags.Bool(noColorFlag, false, "disable colorized output")
	flags.BoolP(quietFlag, "q", false, "do not show the banner")
	flags.Duration(spinnerFlag, 100*time.Millisecond, "spinner interval")
	flags.StringP(configFlag, "c", "", "configuration file")
	flags.Bool(debugFlag, false, "enable debugging output")
	flags.String(logLevelFlag, "warning", "log level: trace, debug, info, warning, or error")
	flags.String(logFormatFlag, "text", "log format: text or json")
	flags.String(logFileFlag, "", "log into this (rotated) file instead of stderr")
	_ = v.BindPFlags(flags)
	return
}

// config is the validated scan configuration, merged from flags, environment
// and configuration file.
type config struct {
	Domain      string
	Wordlist    string
	Threads     int
	Output      string
	Format      output.Format
	Resolvers   []string
	DNSTimeout  time.Duration
	TCP         bool
	Container   string
	Netns       string
	DockerHost  string
	Ping        bool
	MetricsAddr string
	HideDead    bool
	NoColor     bool
	Quiet       bool
	Spinner     time.Duration
	Debug       bool
	LogLevel    string
	LogFormat   string
	LogFile     string
}

// loadConfig returns the validated configuration, merged from the flags bound
// to v, the environment and the configuration file, if any.
func loadConfig(v *viper.Viper) (*config, error) {
	if err := readConfig(v); err != nil {
		return nil, err
	}
	return newConfig(v)
}

// readConfig reads the configuration file, if any, and enables configuration
// via SUBDIG_* environment variables.
func readConfig(v *viper.Viper) error {
	v.SetEnvPrefix("SUBDIG")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	cfgFile := v.GetString(configFlag)
	if cfgFile == "" {
		return nil
	}
	v.SetConfigFile(cfgFile)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("cannot read configuration: %w", err)
	}
	return nil
}

// newConfig returns the validated configuration.
func newConfig(v *viper.Viper) (*config, error) {
	cfg := &config{
		Domain:      strings.TrimSuffix(strings.TrimSpace(v.GetString(domainFlag)), "."),
		Wordlist:    v.GetString(wordlistFlag),
		Threads:     v.GetInt(threadsFlag),
		Output:      v.GetString(outputFlag),
		Resolvers:   v.GetStringSlice(resolverFlag),
		DNSTimeout:  v.GetDuration(dnsTimeoutFlag),
		TCP:         v.GetBool(tcpFlag),
		Container:   v.GetString(containerFlag),
		Netns:       v.GetString(netnsFlag),
		DockerHost:  v.GetString(dockerHostFlag),
		Ping:        v.GetBool(pingFlag),
		MetricsAddr: v.GetString(metricsAddrFlag),
		HideDead:    v.GetBool(hideDeadFlag),
		NoColor:     v.GetBool(noColorFlag),
		Quiet:       v.GetBool(quietFlag),
		Spinner:     v.GetDuration(spinnerFlag),
		Debug:       v.GetBool(debugFlag),
		LogLevel:    v.GetString(logLevelFlag),
		LogFormat:   v.GetString(logFormatFlag),
		LogFile:     v.GetString(logFileFlag),
	}
	if cfg.Domain == "" {
		return nil, fmt.Errorf("required flag --%s not set", domainFlag)
	}
	if _, err := idna.ToASCII(cfg.Domain); err != nil {
		return nil, fmt.Errorf("invalid --%s %q: %w", domainFlag, cfg.Domain, err)
	}
	if cfg.Wordlist == "" {
		return nil, fmt.Errorf("required flag --%s not set", wordlistFlag)
	}
	if cfg.Threads < 1 || cfg.Threads > maxThreads {
		return nil, fmt.Errorf("--%s out of range [1..%d]", threadsFlag, maxThreads)
	}
	if cfg.Spinner < 10*time.Millisecond {
		return nil, fmt.Errorf("--%s must be at least 10ms", spinnerFlag)
	}
	if cfg.DNSTimeout <= 0 {
		return nil, fmt.Errorf("--%s must be positive", dnsTimeoutFlag)
	}
	if cfg.Container != "" && cfg.Netns != "" {
		return nil, fmt.Errorf("--%s and --%s are mutually exclusive", containerFlag, netnsFlag)
	}
	format, err := output.ParseFormat(v.GetString(formatFlag))
	if err != nil {
		return nil, fmt.Errorf("invalid --%s: %w", formatFlag, err)
	}
	cfg.Format = format
	if _, err := log.ParseLevel(cfg.LogLevel); err != nil {
		return nil, fmt.Errorf("invalid --%s: %w", logLevelFlag, err)
	}
	switch cfg.LogFormat {
	case "text", "json":
	default:
		return nil, fmt.Errorf("invalid --%s %q", logFormatFlag, cfg.LogFormat)
	}
	return cfg, nil
}
