package main

import (
	"flag"
	"strings"
	"time"
)

var doDebug bool

func main() {
	soundpack := flag.String("soundpack", "", "soundpack directory (overrides the configured pack)")
	event := flag.String("event", "", "play a sound event id and exit")
	variant := flag.String("variant", "default", "variant for -event")
	season := flag.String("season", "", "season for -event (spring/summer/autumn/winter)")
	playlist := flag.String("playlist", "", "play a music playlist until interrupted")
	slowed := flag.Bool("slowed", false, "play with the time-dilation effect active")
	hold := flag.Duration("hold", 3*time.Second, "how long to let -event playback drain")
	flag.BoolVar(&doDebug, "debug", false, "verbose/debug logging")
	flag.Parse()

	setupLogging(doDebug)
	loadSettings()

	if err := initSound(); err != nil {
		// The application keeps running with audio fully disabled.
		logError("audio unavailable: %v", err)
		return
	}
	defer shutdownSound()

	var err error
	if *soundpack != "" {
		err = loadSoundset(*soundpack)
	} else {
		err = loadSoundsetFromSettings()
	}
	if err != nil {
		logError("failed to load sounds: %v", err)
		return
	}

	setTimeDilation(*slowed)

	if *event != "" {
		for _, id := range strings.Split(*event, ",") {
			playVariantSound(id, *variant, *season, nil, nil, 100)
		}
		time.Sleep(*hold)
	}

	if *playlist != "" {
		playMusic(*playlist)
		select {}
	}
}
