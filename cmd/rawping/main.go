// Command rawping builds a single IPv4+ICMP Echo Request entirely in user
// space, injects it through a raw socket and waits for the matching Echo
// Reply. It exists to make the RFC 791/792 wire formats and the RFC 1071
// checksum visible, not to replace ping(8).
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/deblasis/rawping"
)

var (
	configFile string
	verbose    bool

	srcAddr    string
	payload    string
	identifier uint16
	sequence   uint16
	ttl        uint8
	timeout    time.Duration
)

var rootCmd = &cobra.Command{
	Use:   "rawping <destination>",
	Short: "Send one hand-built ICMP Echo Request and print the reply",
	Long: `rawping assembles an IPv4 + ICMP Echo Request datagram byte by byte,
checksums it per RFC 1071, injects it through a raw socket (IP_HDRINCL) and
listens for the kernel's Echo Reply, filtering out the looped-back request.

Raw sockets require CAP_NET_RAW or root.`,
	Args:    cobra.ExactArgs(1),
	Version: "0.1.0",
	RunE:    run,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file path (YAML)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	rootCmd.Flags().StringVarP(&srcAddr, "source", "S", "", "source IPv4 address (default: chosen by the kernel)")
	rootCmd.Flags().StringVarP(&payload, "payload", "p", "HELLO", "payload bytes to echo")
	rootCmd.Flags().Uint16Var(&identifier, "id", uint16(os.Getpid()), "echo identifier")
	rootCmd.Flags().Uint16Var(&sequence, "seq", 1, "echo sequence number")
	rootCmd.Flags().Uint8Var(&ttl, "ttl", rawping.DefaultTTL, "time to live")
	rootCmd.Flags().DurationVarP(&timeout, "timeout", "t", rawping.DefaultTimeout, "reply deadline")

	viper.SetDefault("payload", "HELLO")
	viper.SetDefault("ttl", rawping.DefaultTTL)
	viper.SetDefault("timeout", rawping.DefaultTimeout)
}

// loadConfig lets a YAML file supply defaults for anything not set on the
// command line.
func loadConfig(cmd *cobra.Command) error {
	if configFile == "" {
		return nil
	}
	viper.SetConfigFile(configFile)
	if err := viper.ReadInConfig(); err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	if !cmd.Flags().Changed("payload") {
		payload = viper.GetString("payload")
	}
	if !cmd.Flags().Changed("ttl") {
		ttl = uint8(viper.GetUint("ttl"))
	}
	if !cmd.Flags().Changed("timeout") {
		timeout = viper.GetDuration("timeout")
	}
	return nil
}

func run(cmd *cobra.Command, args []string) error {
	log := logrus.StandardLogger()
	if verbose {
		log.SetLevel(logrus.DebugLevel)
	}

	if err := loadConfig(cmd); err != nil {
		return err
	}

	dst, err := rawping.ParseIPv4(args[0])
	if err != nil {
		return err
	}

	opts := []rawping.BuildOption{rawping.WithTTL(ttl)}
	var src []byte
	if srcAddr != "" {
		ip, err := rawping.ParseIPv4(srcAddr)
		if err != nil {
			return err
		}
		src = ip
	}

	d, err := rawping.BuildEchoRequest(src, dst, identifier, sequence, []byte(payload), opts...)
	if err != nil {
		return err
	}

	fmt.Printf("Raw IPv4 + ICMP Datagram (Wire Format), %d bytes:\n%s\n", len(d.Raw), d.Dump())

	conn, err := rawping.Open(
		rawping.WithTimeout(timeout),
		rawping.WithLogger(log),
	)
	if err != nil {
		return err
	}
	defer conn.Close()

	reply, err := conn.Ping(context.Background(), d)
	if err != nil {
		return err
	}

	fmt.Printf("Reply payload (%d bytes): %q\n", len(reply), reply)
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
