package cli

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/ppiankov/iasflat/internal/logging"
	"github.com/ppiankov/iasflat/internal/model"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// version is set at build time with -ldflags "-X"
var version = "v0.3.0"

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "iasflat",
	Short: "iasflat - flatten IAS enrollment XML into relational tables",
	Long: `iasflat streams a large IAS enrollment/benefits XML document once and
turns it into tables.

normalize writes one tab-delimited table per entity (Sponsors, Contracts,
Members, Addresses, Benefit, ...) linked by surrogate ids and copied
business keys, and bulk loads them into the warehouse.

wide writes one wide row-set per member (Demo_Records) and per benefit
(Benefit_Records) for documents registered in the FileMetaData catalog.

Memory stays bounded by the current sponsor/contract/member chain, not by
the size of the document.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Display the version number of iasflat.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("iasflat %s\n", version)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.iasflat/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	// Bind flags to viper
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))

	// Add subcommands
	rootCmd.AddCommand(versionCmd)
}

// initConfig reads in config file, .env and ENV variables
func initConfig() {
	// Database credentials may live in a .env file next to the working directory
	_ = godotenv.Load()

	registerDefaults(viper.GetViper(), model.DefaultConfig())

	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			return
		}

		// Search for config in home directory
		viper.AddConfigPath(home + "/.iasflat")
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	bindEnv(viper.GetViper())

	// If a config file is found, read it in
	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// bindEnv reads environment variables that match IASFLAT_*
// (database.user -> IASFLAT_DATABASE_USER, or IASFLAT_DB_USER)
func bindEnv(v *viper.Viper) {
	v.SetEnvPrefix("IASFLAT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("database.user", "IASFLAT_DB_USER", "IASFLAT_DATABASE_USER")
	_ = v.BindEnv("database.password", "IASFLAT_DB_PASSWORD", "IASFLAT_DATABASE_PASSWORD")
}

// loadConfig returns the effective configuration
func loadConfig() (*model.Config, error) {
	cfg := model.DefaultConfig()
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// newLogger builds the run logger; --verbose forces debug level
func newLogger(cfg *model.Config) (*logrus.Logger, error) {
	level := cfg.Logging.Level
	if verbose {
		level = "debug"
	}
	return logging.New(level, cfg.Logging.Format)
}

func printSummary(s *model.RunSummary) {
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Run Complete (%s)\n", s.Mode)
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Document:   %s\n", s.Document)
	fmt.Fprintf(os.Stderr, "  Sponsors:   %d\n", s.Sponsors)
	fmt.Fprintf(os.Stderr, "  Contracts:  %d\n", s.Contracts)
	fmt.Fprintf(os.Stderr, "  Members:    %d\n", s.Members)
	fmt.Fprintf(os.Stderr, "  Benefits:   %d\n", s.Benefits)
	fmt.Fprintf(os.Stderr, "  Rows:       %d\n", s.TotalRows())
	if s.Loaded > 0 {
		fmt.Fprintf(os.Stderr, "  Loaded:     %d\n", s.Loaded)
	}
	fmt.Fprintf(os.Stderr, "  Elapsed:    %s\n", s.Duration.Round(time.Millisecond))
	fmt.Fprintf(os.Stderr, "\n")
	for _, f := range s.Files {
		fmt.Fprintf(os.Stderr, "✓ Wrote %s\n", f)
	}
}
