package content

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Site holds storefront-wide copy and links loaded from site.yaml. Pages
// and templates read from it instead of hard-coding the store identity.
type Site struct {
	Name        string `yaml:"name"`
	Tagline     string `yaml:"tagline"`
	Description string `yaml:"description"`
	Hero        struct {
		Heading    string `yaml:"heading"`
		Subheading string `yaml:"subheading"`
		ImageURL   string `yaml:"image_url"`
		CTALabel   string `yaml:"cta_label"`
		CTAPath    string `yaml:"cta_path"`
	} `yaml:"hero"`
	Social struct {
		Instagram string `yaml:"instagram"`
		Facebook  string `yaml:"facebook"`
		Twitter   string `yaml:"twitter"`
	} `yaml:"social"`
	SupportEmail string `yaml:"support_email"`
}

// LoadSite reads site.yaml from path. Missing files yield defaults so the
// server can boot on a bare checkout.
func LoadSite(path string) (Site, error) {
	site := defaultSite()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return site, nil
		}
		return site, err
	}
	if err := yaml.Unmarshal(data, &site); err != nil {
		return defaultSite(), fmt.Errorf("content: parse %s: %w", path, err)
	}
	if site.Name == "" {
		site.Name = defaultSite().Name
	}
	return site, nil
}

func defaultSite() Site {
	s := Site{
		Name:    "Gostore",
		Tagline: "Handmade goods, shipped anywhere",
	}
	s.Hero.Heading = "Handmade goods"
	s.Hero.CTALabel = "Shop now"
	s.Hero.CTAPath = "/shop"
	return s
}
