package main

import (
	"fmt"

	"github.com/sago35/hotspotlite/pkg/classfile"
)

// dumpClassFile prints a short human-readable summary of cf: its name,
// super, interfaces, and field/method signatures. Full decompiled/
// bytecode-level dumping is out of scope for this core.
func dumpClassFile(cf *classfile.ClassFile) {
	name, _ := cf.ClassName()
	super, _ := cf.SuperClassName()
	ifaces, _ := cf.InterfaceNames()

	fmt.Printf("class %s\n", name)
	if super != "" {
		fmt.Printf("  extends %s\n", super)
	}
	for _, iface := range ifaces {
		fmt.Printf("  implements %s\n", iface)
	}
	fmt.Printf("  major/minor: %d.%d\n", cf.MajorVersion, cf.MinorVersion)

	fmt.Println("  fields:")
	for _, f := range cf.Fields {
		fmt.Printf("    %s %s\n", f.Name, f.Descriptor)
	}
	fmt.Println("  methods:")
	for _, m := range cf.Methods {
		fmt.Printf("    %s %s\n", m.Name, m.Descriptor)
	}
}
