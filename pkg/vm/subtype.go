package vm

// isAssignableTo reports whether ref's runtime class is targetName or a
// (possibly indirect) subclass/implementor of it. Used by both catch-type
// matching and checkcast/instanceof.
func isAssignableTo(ref *Reference, targetName string, t *Thread) bool {
	if ref.IsNull() {
		return true
	}
	switch ref.Kind {
	case RefObject:
		return classIsSubtypeOf(ref.Object.Class, targetName, t)
	case RefInterface:
		return classIsSubtypeOf(*ref.Interface, targetName, t)
	case RefArray:
		return arrayIsSubtypeOf(ref.Array, targetName, t)
	default:
		return false
	}
}

func classIsSubtypeOf(class Class, targetName string, t *Thread) bool {
	if class.Name() == targetName {
		return true
	}
	for _, iface := range class.InterfaceNames() {
		ic, err := t.VM.Registry.Resolve(iface)
		if err == nil && classIsSubtypeOf(ic, targetName, t) {
			return true
		}
	}
	if class.SuperName() == "" {
		return false
	}
	super, err := t.VM.Registry.Resolve(class.SuperName())
	if err != nil {
		return false
	}
	return classIsSubtypeOf(super, targetName, t)
}

// arrayIsSubtypeOf implements the array-specific widening rules: any array
// is assignable to Object/Cloneable/Serializable, and a reference array is
// further assignable to any array type whose component type its own
// component type is assignable to.
func arrayIsSubtypeOf(a *Array, targetName string, t *Thread) bool {
	switch targetName {
	case "java/lang/Object", "java/lang/Cloneable", "java/io/Serializable":
		return true
	}
	if targetName == a.Descriptor() {
		return true
	}
	if a.Kind != ArrayRef || len(targetName) < 2 || targetName[0] != '[' {
		return false
	}
	targetComponent := targetName[1:]
	if len(targetComponent) > 1 && targetComponent[0] == 'L' {
		targetComponent = targetComponent[1 : len(targetComponent)-1]
	}
	ownComponent := a.ComponentDescriptor
	if len(ownComponent) > 1 && ownComponent[0] == 'L' {
		ownComponent = ownComponent[1 : len(ownComponent)-1]
	} else {
		return ownComponent == targetComponent
	}
	class, err := t.VM.Registry.Resolve(ownComponent)
	if err != nil {
		return false
	}
	return classIsSubtypeOf(class, targetComponent, t)
}
