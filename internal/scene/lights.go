// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package scene

// InitLights prepares the point lights of a freshly grafted subtree. Each light
// and every ancestor up to root is flagged as a light container, so it must
// run after the subtree has been attached. Lights are then marked ready once.
func InitLights(subtree, root Node) {
	Walk(subtree, func(n Node) bool {
		light, ok := n.(*MemNode)
		if !ok || !light.IsLight() {
			return true
		}
		light.flags |= FlagPointLight
		for p := light.parent; p != nil; p = p.parent {
			if p.flags&FlagPointLight != 0 {
				break
			}
			p.flags |= FlagPointLight
			if Node(p) == root {
				break
			}
		}
		if light.flags&FlagLightReady == 0 {
			light.flags |= FlagLightReady
		}
		return true
	})
}
