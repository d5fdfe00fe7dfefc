package main

import (
	"encoding/hex"
	"fmt"
	"io/ioutil"
	"os"
	"strings"

	"github.com/bwesterb/go-lms"

	"github.com/edsrzf/mmap-go"
	"github.com/hashicorp/go-multierror"
	"github.com/urfave/cli"
)

// Size of the chunks in which images are fed to the verifier.
const chunkSize = 1 << 20

func parseMode(s string) (lms.HashMode, error) {
	switch strings.ToUpper(s) {
	case "SHA256", "SHA2":
		return lms.SHA256, nil
	case "SHAKE256", "SHAKE":
		return lms.SHAKE256, nil
	}
	return 0, fmt.Errorf("unknown hash mode %q", s)
}

func openStore(c *cli.Context) (*lms.AnchorStore, error) {
	return lms.OpenAnchorStore(c.GlobalString("anchor"))
}

func cmdAlgs(c *cli.Context) error {
	for _, name := range lms.ListNames() {
		fmt.Printf("%s\n", name)
	}
	for _, name := range lms.ListOtsNames() {
		fmt.Printf("%s\n", name)
	}
	return nil
}

func cmdInfo(c *cli.Context) error {
	fmt.Printf("hardware assisted hashing: %v\n", lms.HardwareAssisted())
	if c.NArg() == 0 {
		return nil
	}
	buf, err := ioutil.ReadFile(c.Args().First())
	if err != nil {
		return err
	}

	if pk, err := lms.ParseHssPublicKey(buf); err == nil {
		mode, _ := lms.HashModeOf(lms.PubAlgoHss, buf)
		fmt.Printf("HSS public key\n")
		fmt.Printf("  levels  %d\n", pk.Levels)
		fmt.Printf("  hash    %v\n", mode)
		fmt.Printf("  lms     %v\n", pk.Key.Type)
		fmt.Printf("  lmots   %v\n", pk.Key.OtsType)
		fmt.Printf("  I       %s\n", hex.EncodeToString(pk.Key.I[:]))
		fmt.Printf("  T       %s\n", hex.EncodeToString(pk.Key.T))
		return nil
	}

	sig, err := lms.ParseHssSignature(buf)
	if err != nil {
		return cli.NewExitError(
			fmt.Sprintf("neither a public key nor a signature: %v", err), 1)
	}
	fmt.Printf("HSS signature\n")
	fmt.Printf("  levels  %d\n", sig.Levels())
	for i, spk := range sig.Signed {
		fmt.Printf("  level %d: leaf %d of %v/%v signs %v\n", i,
			spk.Sig.Q, spk.Sig.Type, spk.Sig.Ots.Type, spk.Key.Type)
	}
	fmt.Printf("  level %d: leaf %d of %v/%v signs message\n",
		len(sig.Signed), sig.Sig.Q, sig.Sig.Type, sig.Sig.Ots.Type)
	return nil
}

func cmdProvision(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.NewExitError("expected the public key file", 2)
	}
	pk, err := ioutil.ReadFile(c.Args().First())
	if err != nil {
		return err
	}
	var mode lms.HashMode
	if c.String("mode") == "" {
		mode, err = lms.HashModeOf(lms.PubAlgoHss, pk)
	} else {
		mode, err = parseMode(c.String("mode"))
	}
	if err != nil {
		return err
	}

	st, err := openStore(c)
	if err != nil {
		return err
	}
	if err := st.Provision(mode, pk, c.Bool("force")); err != nil {
		return err
	}
	fmt.Printf("provisioned %s\n", st.Path())
	return nil
}

func cmdShowAnchor(c *cli.Context) error {
	st, err := openStore(c)
	if err != nil {
		return err
	}
	anchor, err := st.Load()
	if err != nil {
		return err
	}
	pk, err := lms.ParseHssPublicKey(anchor.PublicKey)
	if err != nil {
		return err
	}
	fmt.Printf("%s\n", st.Path())
	fmt.Printf("  hash    %v\n", anchor.Mode)
	fmt.Printf("  levels  %d\n", pk.Levels)
	fmt.Printf("  lms     %v\n", pk.Key.Type)
	fmt.Printf("  lmots   %v\n", pk.Key.OtsType)
	fmt.Printf("  T       %s\n", hex.EncodeToString(pk.Key.T))
	return nil
}

// Streams the memory-mapped image into the verifier.
func verifyImage(v *lms.Verifier, pk []byte, image, sigPath string) error {
	sig, err := ioutil.ReadFile(sigPath)
	if err != nil {
		return err
	}
	f, err := os.Open(image)
	if err != nil {
		return err
	}
	defer f.Close()
	fi, err := f.Stat()
	if err != nil {
		return err
	}

	v.Reset()
	if err := v.HssInit(sig, pk); err != nil {
		return err
	}

	if fi.Size() == 0 {
		if err := v.HashMessage(nil, true); err != nil {
			return err
		}
	} else {
		m, err := mmap.Map(f, mmap.RDONLY, 0)
		if err != nil {
			return err
		}
		defer m.Unmap()
		for off := 0; off < len(m); off += chunkSize {
			end := off + chunkSize
			if end > len(m) {
				end = len(m)
			}
			if err := v.HashMessage(m[off:end], end == len(m)); err != nil {
				return err
			}
		}
	}
	return v.HssFinish(sig)
}

func cmdVerify(c *cli.Context) error {
	if c.NArg() == 0 {
		return cli.NewExitError("expected at least one image", 2)
	}
	st, err := openStore(c)
	if err != nil {
		return err
	}
	anchor, err := st.Load()
	if err != nil {
		return err
	}
	v, err := anchor.NewVerifier(&lms.Options{
		MaxLevels: uint32(c.GlobalUint("max-levels")),
	})
	if err != nil {
		return err
	}

	var result *multierror.Error
	for _, image := range c.Args() {
		sigPath := image + c.String("suffix")
		if err := verifyImage(v, anchor.PublicKey, image, sigPath); err != nil {
			fmt.Printf("%s: FAILED (%v)\n", image, lms.CodeOf(err))
			result = multierror.Append(result,
				fmt.Errorf("%s: %w", image, err))
			continue
		}
		fmt.Printf("%s: OK\n", image)
	}
	if err := result.ErrorOrNil(); err != nil {
		return cli.NewExitError(err.Error(), 1)
	}
	return nil
}

func main() {
	app := cli.NewApp()
	app.Name = "lms"
	app.Usage = "Verify LMS/HSS signed images"

	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:   "verbose",
			Usage:  "log the steps of the verification",
			EnvVar: "LMS_VERBOSE",
		},
		cli.StringFlag{
			Name:   "anchor",
			Usage:  "path of the trust anchor store",
			Value:  "anchor.lms",
			EnvVar: "LMS_ANCHOR",
		},
		cli.UintFlag{
			Name:   "max-levels",
			Usage:  "maximum number of HSS levels to accept",
			Value:  lms.DefaultMaxLevels,
			EnvVar: "LMS_MAX_LEVELS",
		},
	}
	app.Before = func(c *cli.Context) error {
		if c.GlobalBool("verbose") {
			lms.EnableLogging()
		}
		return nil
	}

	app.Commands = []cli.Command{
		{
			Name:   "algs",
			Usage:  "List supported LMS and LM-OTS algorithms",
			Action: cmdAlgs,
		},
		{
			Name:      "info",
			Usage:     "Describe a public key or signature file",
			ArgsUsage: "[file]",
			Action:    cmdInfo,
		},
		{
			Name:      "provision",
			Usage:     "Store an HSS public key as trust anchor",
			ArgsUsage: "<public key file>",
			Action:    cmdProvision,
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:  "mode",
					Usage: "hash mode (SHA256 or SHAKE256); derived from the key if empty",
				},
				cli.BoolFlag{
					Name:  "force",
					Usage: "replace an existing trust anchor",
				},
			},
		},
		{
			Name:   "show-anchor",
			Usage:  "Show the provisioned trust anchor",
			Action: cmdShowAnchor,
		},
		{
			Name:      "verify",
			Usage:     "Verify images against the trust anchor",
			ArgsUsage: "<image>...",
			Action:    cmdVerify,
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:  "suffix",
					Usage: "suffix of the detached signature files",
					Value: ".sig",
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
