//go:build mage

package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/magefile/mage/mg"
)

const shaderDir = "assets/shaders"

type Build mg.Namespace

// Compiles every GLSL source in assets/shaders to SPIR-V with glslc.
func (Build) Shaders() error {
	sources, err := filepath.Glob(filepath.Join(shaderDir, "shader.*"))
	if err != nil {
		return err
	}
	for _, src := range sources {
		stage := strings.TrimPrefix(filepath.Ext(src), ".")
		if stage != "vert" && stage != "frag" {
			continue
		}
		out := filepath.Join(shaderDir, stage+".spv")
		if _, err := executeCmd("glslc", withArgs(src, "-o", out), withStream()); err != nil {
			return err
		}
	}
	return nil
}

// Builds the vktriangle binary without the validation layer default.
func (Build) Release() error {
	mg.Deps(Build.Shaders)
	if _, err := executeCmd("go", withArgs("build", "-tags", "release", "-o", "bin/vktriangle", "."), withStream()); err != nil {
		return err
	}
	fmt.Println("Built bin/vktriangle")
	return nil
}

// Runs the package tests.
func (Build) Test() error {
	_, err := executeCmd("go", withArgs("test", "./engine/..."), withStream())
	return err
}
