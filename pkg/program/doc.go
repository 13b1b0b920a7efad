/*
Package program implements the editable program model: an arena of
instructions addressed by stable identity, and the three fixed programs
(main, subprogram-1, subprogram-2) that order them.

Programs never embed instructions; they hold ordered lists of IDs plus a
conditional index keyed by ordinal position. Conditions are not top-level
members: they hang off a host instruction and travel with it.

All mutations go through a Workspace so that the back-references
(condition/attached-to, instruction/owner) are always updated in pairs.
*/
package program
