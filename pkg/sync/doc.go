/*
The sync package implements the mirror's sync algorithm. It makes a replica
directory tree match a source directory tree, one pass at a time.

A pass walks the source and replica in lockstep, depth first. At each level:
1) Files -- Every source file that is missing from the replica, or whose
   contents differ from the replica's copy, is copied over. Afterwards, every
   replica file without a source file of the same name is deleted.
2) Directories -- Every source subdirectory is reconciled recursively. Replica
   subdirectories without a source counterpart are removed with everything
   inside them.

Entries are matched by name only. Content equality is decided by a full
byte-for-byte comparison, so a file that changes without changing size is
still copied. Symbolic links and other non-regular files are ignored.

Every mutating action is written to the operation log. Errors are logged as
well, and what happens after an error depends on the Syncer's ErrorPolicy.
*/
package sync
