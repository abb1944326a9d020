package configs

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

const (
	DefaultPublicProtocol   = "http"
	DefaultPublicDomain     = "localhost"
	DefaultPublicPathPrefix = "/find"
	defaultHTTPPort         = 80
	defaultHTTPSPort        = 443
)

// PublicConfig 生成 custom_url 所用的对外访问地址.
type PublicConfig struct {
	Protocol   string `mapstructure:"protocol"    rule:"oneof=http https"`
	Domain     string `mapstructure:"domain"      rule:"required"`
	Port       int    `mapstructure:"port"        rule:"min=0,max=65535"`
	PathPrefix string `mapstructure:"path_prefix"`
}

// normalize 补全端口并规范化协议与路径前缀.
func (c *PublicConfig) normalize() {
	c.Protocol = strings.ToLower(strings.TrimSpace(c.Protocol))
	if c.Port == 0 {
		c.Port = defaultHTTPPort
		if c.Protocol == "https" {
			c.Port = defaultHTTPSPort
		}
	}

	c.PathPrefix = strings.TrimRight(c.PathPrefix, "/")
	if c.PathPrefix != "" && !strings.HasPrefix(c.PathPrefix, "/") {
		c.PathPrefix = "/" + c.PathPrefix
	}
}

// BuildURL 按 {protocol}://{domain}:{port}{prefix}/{year}/{month}/{day}/{uuid} 生成对外地址.
func (c *PublicConfig) BuildURL(year, month, day int, id string) string {
	return fmt.Sprintf("%s://%s:%d%s/%d/%d/%d/%s", c.Protocol, c.Domain, c.Port, c.PathPrefix, year, month, day, id)
}

func (c *PublicConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("public.protocol", DefaultPublicProtocol)
	v.SetDefault("public.domain", DefaultPublicDomain)
	v.SetDefault("public.port", 0)
	v.SetDefault("public.path_prefix", DefaultPublicPathPrefix)
}
