// README: Common identifier type shared by modules.
package types

type ID string

func (id ID) String() string { return string(id) }
