package config

import (
	"flag"
	"os"

	"github.com/dmitrijs2005/faceguard/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-d string   data directory
//	-i int      PBKDF2 iteration count
//	-t float    default face match threshold (distance, 0..1)
//	-m bool     default force-MFA policy for a fresh store
//	-k string   face service API key
//	-s string   face service API secret
//
// The function first filters os.Args to only the flags it recognizes
// using flagx.FilterArgs, avoiding collisions with other components.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-d", "-i", "-t", "-m", "-k", "-s"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.DataDir, "d", config.DataDir, "data directory")
	fs.IntVar(&config.PBKDF2Iterations, "i", config.PBKDF2Iterations, "PBKDF2 iteration count")
	fs.Float64Var(&config.DefaultFaceThreshold, "t", config.DefaultFaceThreshold, "default face distance threshold")
	fs.BoolVar(&config.DefaultForceMFA, "m", config.DefaultForceMFA, "default force-MFA policy")
	fs.StringVar(&config.FaceAPIKey, "k", config.FaceAPIKey, "face service API key")
	fs.StringVar(&config.FaceAPISecret, "s", config.FaceAPISecret, "face service API secret")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}
}
