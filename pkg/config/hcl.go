// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"context"
	"os"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	"gitlab.com/tozd/go/errors"
)

func init() {
	Register(&HCLParser{})
}

// 🔧 HCLParser implements the Parser interface for HCL files
type HCLParser struct{}

// 🔍 CanParse checks if this parser can handle the given file
func (p *HCLParser) CanParse(filename string) bool {
	return hasExt(filename, ".hcl")
}

type hclDestination struct {
	Path       string   `hcl:"path,label"`
	Categories []string `hcl:"categories,optional"`
	Extension  string   `hcl:"extension,optional"`
	Naming     string   `hcl:"naming,optional"`
}

type hclRule struct {
	Pattern      string           `hcl:"pattern,label"`
	Archive      bool             `hcl:"archive,optional"`
	Dest         string           `hcl:"dest,optional"`
	Categories   []string         `hcl:"categories,optional"`
	Destinations []hclDestination `hcl:"destination,block"`
}

type hclStream struct {
	Name     string   `hcl:"name,label"`
	Source   string   `hcl:"source"`
	Member   string   `hcl:"member,optional"`
	Latest   string   `hcl:"latest"`
	Previous string   `hcl:"previous"`
	Version  []string `hcl:"version,optional"`
}

type hclConfig struct {
	DefaultDest   string      `hcl:"default_dest,optional"`
	MemberPattern string      `hcl:"member_pattern,optional"`
	Rules         []hclRule   `hcl:"rule,block"`
	Streams       []hclStream `hcl:"stream,block"`
}

// 📝 Parse parses the config from HCL; env.NAME expands environment variables
func (p *HCLParser) Parse(ctx context.Context, data []byte) (*Config, error) {
	parser := hclparse.NewParser()
	hclFile, diags := parser.ParseHCL(data, "config.hcl")
	if diags.HasErrors() {
		return nil, errors.Errorf("parsing HCL: %s", diags.Error())
	}

	evalCtx := &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"env": envObject(),
		},
	}

	var hclCfg hclConfig
	diags = gohcl.DecodeBody(hclFile.Body, evalCtx, &hclCfg)
	if diags.HasErrors() {
		return nil, errors.Errorf("decoding HCL: %s", diags.Error())
	}

	cfg := &Config{
		DefaultDest:   hclCfg.DefaultDest,
		MemberPattern: hclCfg.MemberPattern,
	}
	for _, r := range hclCfg.Rules {
		rule := RuleConfig{
			Pattern:    r.Pattern,
			Archive:    r.Archive,
			Dest:       r.Dest,
			Categories: r.Categories,
		}
		for _, d := range r.Destinations {
			rule.Destinations = append(rule.Destinations, DestinationConfig(d))
		}
		cfg.Rules = append(cfg.Rules, rule)
	}
	for _, s := range hclCfg.Streams {
		cfg.Streams = append(cfg.Streams, StreamConfig(s))
	}

	return cfg, nil
}

func envObject() cty.Value {
	vals := map[string]cty.Value{}
	for _, kv := range os.Environ() {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" || !hclIdentifier(k) {
			continue
		}
		vals[k] = cty.StringVal(v)
	}
	return cty.ObjectVal(vals)
}

func hclIdentifier(s string) bool {
	for i, r := range s {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && (r >= '0' && r <= '9' || r == '-'):
		default:
			return false
		}
	}
	return true
}
