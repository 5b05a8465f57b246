package config

import (
	"gopkg.in/ini.v1"

	"papermirror/internal/shared/types"
)

// LoadIni loads the papermirror.ini behavior configuration file.
func LoadIni(cfg *types.Config, fileName string) error {
	iniFile, err := ini.Load(fileName)
	if err != nil {
		return err
	}
	if err := iniFile.MapTo(cfg); err != nil {
		return err
	}
	ApplyDefaults(cfg)
	return nil
}

// ApplyDefaults fills in every config field that was left unset so callers
// never have to re-check for zero values.
func ApplyDefaults(cfg *types.Config) {
	if cfg.MirrorConf.Hosts == "" {
		cfg.MirrorConf.Hosts = "libgen.gs,libgen.li,libgen.vg,libgen.la,libgen.bz,libgen.gl"
	}
	if cfg.MirrorConf.ProbePath == "" {
		cfg.MirrorConf.ProbePath = "/json.php"
	}
	if cfg.MirrorConf.ProbeTimeoutSeconds <= 0 {
		cfg.MirrorConf.ProbeTimeoutSeconds = 3
	}

	if cfg.ProxyConf.File == "" {
		cfg.ProxyConf.File = "configs/proxy.json"
	}
	if cfg.ProxyConf.SampleSize <= 0 {
		cfg.ProxyConf.SampleSize = 25
	}
	if cfg.ProxyConf.Concurrency <= 0 {
		cfg.ProxyConf.Concurrency = 10
	}
	if cfg.ProxyConf.ProbeTimeoutSeconds <= 0 {
		cfg.ProxyConf.ProbeTimeoutSeconds = 8
	}
	if cfg.ProxyConf.CheckURL == "" {
		cfg.ProxyConf.CheckURL = "https://httpbin.org/ip"
	}
	if cfg.ProxyConf.ExcludedRegions == "" {
		cfg.ProxyConf.ExcludedRegions = defaultExcludedRegions
	}

	if cfg.TransferConf.DestDir == "" {
		cfg.TransferConf.DestDir = "downloads"
	}
	if cfg.TransferConf.TimeoutSeconds <= 0 {
		cfg.TransferConf.TimeoutSeconds = 30
	}
	if cfg.TransferConf.PreferredLabels == "" {
		cfg.TransferConf.PreferredLabels = "GET,Main"
	}
	if cfg.TransferConf.ResolveMarker == "" {
		cfg.TransferConf.ResolveMarker = "get.php?md5="
	}
}

// Region codes whose proxies are excluded from discovery. These countries
// block or throttle the upstream services this tool talks to.
const defaultExcludedRegions = "VN,CN,IR,RU,BY,TH,ID,BD,PK,IN,KZ,UZ,TJ,TM,KG,MY,SG,AE,SA,EG,TR,UA"
