package configs

// AppVersion 应用版本，发布时通过 -ldflags "-X github.com/yeisme/tgvault/pkg/configs.AppVersion=..." 注入.
var AppVersion = "0.1.0"
